package labops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blutspende/labops/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	msgGetBundleFailed     = "get bundle failed"
	msgCreateBundleFailed  = "create bundle failed"
	msgGetVersionFailed    = "get bundle version failed"
	msgCreateVersionFailed = "create bundle version failed"
	msgAddFileFailed       = "add bundle file failed"
)

var (
	ErrGetBundleFailed     = errors.New(msgGetBundleFailed)
	ErrCreateBundleFailed  = errors.New(msgCreateBundleFailed)
	ErrGetVersionFailed    = errors.New(msgGetVersionFailed)
	ErrCreateVersionFailed = errors.New(msgCreateVersionFailed)
	ErrAddFileFailed       = errors.New(msgAddFileFailed)
)

// BundleRepository stores file bundles: one bundle per owner (sample or case), dated versions
// and tagged file paths.
type BundleRepository interface {
	GetBundle(ctx context.Context, name string) (Bundle, error)
	CreateBundle(ctx context.Context, name string) (uuid.UUID, error)
	GetLatestVersion(ctx context.Context, bundleID uuid.UUID) (BundleVersion, error)
	GetVersion(ctx context.Context, bundleName string, createdAt time.Time) (BundleVersion, error)
	CreateVersion(ctx context.Context, bundleID uuid.UUID, createdAt time.Time) (uuid.UUID, error)
	AddFile(ctx context.Context, versionID uuid.UUID, path string, toArchive bool, tags []string) (uuid.UUID, error)
	// GetBundlePaths lists the file paths of every version of a bundle.
	GetBundlePaths(ctx context.Context, bundleID uuid.UUID) ([]string, error)

	CreateTransaction() (db.DbConnector, error)
	WithTransaction(tx db.DbConnector) BundleRepository
}

type bundleDAO struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type bundleVersionDAO struct {
	ID         uuid.UUID    `db:"id"`
	BundleID   uuid.UUID    `db:"bundle_id"`
	CreatedAt  time.Time    `db:"created_at"`
	IncludedAt sql.NullTime `db:"included_at"`
}

type bundleFileDAO struct {
	ID        uuid.UUID      `db:"id"`
	VersionID uuid.UUID      `db:"version_id"`
	Path      string         `db:"path"`
	ToArchive bool           `db:"to_archive"`
	Tags      pq.StringArray `db:"tags"`
}

type bundleRepository struct {
	db       db.DbConnector
	dbSchema string
}

func NewBundleRepository(db db.DbConnector, dbSchema string) BundleRepository {
	return &bundleRepository{
		db:       db,
		dbSchema: dbSchema,
	}
}

func (r *bundleRepository) GetBundle(ctx context.Context, name string) (Bundle, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.hk_bundles WHERE name = $1;`, r.dbSchema)
	var dao bundleDAO
	err := r.db.GetContext(ctx, &dao, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return Bundle{}, errors.Wrapf(ErrNotFound, "bundle %s", name)
		}
		log.Error().Err(err).Str("bundle", name).Msg(msgGetBundleFailed)
		return Bundle{}, ErrGetBundleFailed
	}
	return Bundle{ID: dao.ID, Name: dao.Name, CreatedAt: dao.CreatedAt}, nil
}

// CreateBundle returns the id of the bundle with that name, creating it when missing.
func (r *bundleRepository) CreateBundle(ctx context.Context, name string) (uuid.UUID, error) {
	query := fmt.Sprintf(`INSERT INTO %s.hk_bundles(name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id;`, r.dbSchema)
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, query, name)
	if err != nil {
		log.Error().Err(err).Str("bundle", name).Msg(msgCreateBundleFailed)
		return uuid.Nil, ErrCreateBundleFailed
	}
	return id, nil
}

func (r *bundleRepository) GetLatestVersion(ctx context.Context, bundleID uuid.UUID) (BundleVersion, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.hk_versions WHERE bundle_id = $1 ORDER BY created_at DESC LIMIT 1;`, r.dbSchema)
	return r.getVersion(ctx, query, bundleID)
}

func (r *bundleRepository) GetVersion(ctx context.Context, bundleName string, createdAt time.Time) (BundleVersion, error) {
	query := fmt.Sprintf(`SELECT v.* FROM %s.hk_versions v
		INNER JOIN %s.hk_bundles b ON b.id = v.bundle_id
		WHERE b.name = $1 AND v.created_at = $2;`, r.dbSchema, r.dbSchema)
	return r.getVersion(ctx, query, bundleName, createdAt)
}

func (r *bundleRepository) getVersion(ctx context.Context, query string, args ...interface{}) (BundleVersion, error) {
	var dao bundleVersionDAO
	err := r.db.GetContext(ctx, &dao, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return BundleVersion{}, errors.Wrap(ErrNotFound, "bundle version")
		}
		log.Error().Err(err).Msg(msgGetVersionFailed)
		return BundleVersion{}, ErrGetVersionFailed
	}

	files, err := r.getFiles(ctx, dao.ID)
	if err != nil {
		return BundleVersion{}, err
	}

	var includedAt *time.Time
	if dao.IncludedAt.Valid {
		includedAt = &dao.IncludedAt.Time
	}
	return BundleVersion{
		ID:         dao.ID,
		BundleID:   dao.BundleID,
		CreatedAt:  dao.CreatedAt,
		IncludedAt: includedAt,
		Files:      files,
	}, nil
}

func (r *bundleRepository) getFiles(ctx context.Context, versionID uuid.UUID) ([]BundleFile, error) {
	query := fmt.Sprintf(`SELECT f.id, f.version_id, f.path, f.to_archive,
			COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}') AS tags
		FROM %s.hk_files f
		LEFT JOIN %s.hk_file_tags ft ON ft.file_id = f.id
		LEFT JOIN %s.hk_tags t ON t.id = ft.tag_id
		WHERE f.version_id = $1
		GROUP BY f.id
		ORDER BY f.path;`, r.dbSchema, r.dbSchema, r.dbSchema)
	daos := make([]bundleFileDAO, 0)
	err := r.db.SelectContext(ctx, &daos, query, versionID)
	if err != nil {
		log.Error().Err(err).Msg(msgGetVersionFailed)
		return nil, ErrGetVersionFailed
	}

	files := make([]BundleFile, 0, len(daos))
	for _, dao := range daos {
		files = append(files, BundleFile{
			ID:        dao.ID,
			VersionID: dao.VersionID,
			Path:      dao.Path,
			ToArchive: dao.ToArchive,
			Tags:      []string(dao.Tags),
		})
	}
	return files, nil
}

func (r *bundleRepository) GetBundlePaths(ctx context.Context, bundleID uuid.UUID) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT f.path
		FROM %s.hk_files f
		INNER JOIN %s.hk_versions v ON v.id = f.version_id
		WHERE v.bundle_id = $1
		ORDER BY f.path;`, r.dbSchema, r.dbSchema)
	paths := make([]string, 0)
	err := r.db.SelectContext(ctx, &paths, query, bundleID)
	if err != nil {
		log.Error().Err(err).Str("bundle", bundleID.String()).Msg(msgGetVersionFailed)
		return nil, ErrGetVersionFailed
	}
	return paths, nil
}

func (r *bundleRepository) CreateVersion(ctx context.Context, bundleID uuid.UUID, createdAt time.Time) (uuid.UUID, error) {
	query := fmt.Sprintf(`INSERT INTO %s.hk_versions(bundle_id, created_at) VALUES ($1, $2) RETURNING id;`, r.dbSchema)
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, query, bundleID, createdAt)
	if err != nil {
		log.Error().Err(err).Msg(msgCreateVersionFailed)
		return uuid.Nil, ErrCreateVersionFailed
	}
	return id, nil
}

// AddFile adds a path to a version, tagging it. A path already in the version keeps its id
// and receives the missing tags.
func (r *bundleRepository) AddFile(ctx context.Context, versionID uuid.UUID, path string, toArchive bool, tags []string) (uuid.UUID, error) {
	query := fmt.Sprintf(`INSERT INTO %s.hk_files(version_id, path, to_archive) VALUES ($1, $2, $3)
		ON CONFLICT (version_id, path) DO UPDATE SET path = EXCLUDED.path
		RETURNING id;`, r.dbSchema)
	var fileID uuid.UUID
	err := r.db.GetContext(ctx, &fileID, query, versionID, path, toArchive)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg(msgAddFileFailed)
		return uuid.Nil, ErrAddFileFailed
	}

	tagQuery := fmt.Sprintf(`INSERT INTO %s.hk_tags(name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id;`, r.dbSchema)
	linkQuery := fmt.Sprintf(`INSERT INTO %s.hk_file_tags(file_id, tag_id) VALUES ($1, $2)
		ON CONFLICT (file_id, tag_id) DO NOTHING;`, r.dbSchema)
	for _, tag := range tags {
		var tagID uuid.UUID
		err = r.db.GetContext(ctx, &tagID, tagQuery, tag)
		if err != nil {
			log.Error().Err(err).Str("tag", tag).Msg(msgAddFileFailed)
			return uuid.Nil, ErrAddFileFailed
		}
		_, err = r.db.ExecContext(ctx, linkQuery, fileID, tagID)
		if err != nil {
			log.Error().Err(err).Str("tag", tag).Msg(msgAddFileFailed)
			return uuid.Nil, ErrAddFileFailed
		}
	}
	return fileID, nil
}

func (r *bundleRepository) CreateTransaction() (db.DbConnector, error) {
	tx, err := r.db.CreateTransactionConnector()
	if err != nil {
		log.Error().Err(err).Msg(msgCreateTransactionFailed)
		return nil, err
	}
	return tx, nil
}

func (r *bundleRepository) WithTransaction(tx db.DbConnector) BundleRepository {
	if tx == nil {
		return r
	}
	txRepo := *r
	txRepo.db = tx
	return &txRepo
}
