package migrator

// bundle store
const migration_2 = `
CREATE TABLE <SCHEMA_PLACEHOLDER>.hk_bundles(
    id uuid not null default(uuid_generate_v4()),
    name varchar not null,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_hk_bundles primary key (id),
    constraint uq_hk_bundles_name unique (name)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.hk_versions(
    id uuid not null default(uuid_generate_v4()),
    bundle_id uuid not null,
    created_at timestamp not null,
    included_at timestamp,
    constraint pk_hk_versions primary key (id),
    constraint uq_hk_versions unique (bundle_id, created_at),
    constraint fk_hk_versions_bundles foreign key (bundle_id) references <SCHEMA_PLACEHOLDER>.hk_bundles(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.hk_tags(
    id uuid not null default(uuid_generate_v4()),
    name varchar not null,
    constraint pk_hk_tags primary key (id),
    constraint uq_hk_tags_name unique (name)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.hk_files(
    id uuid not null default(uuid_generate_v4()),
    version_id uuid not null,
    path varchar not null,
    to_archive bool not null default(false),
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_hk_files primary key (id),
    constraint uq_hk_files_path unique (version_id, path),
    constraint fk_hk_files_versions foreign key (version_id) references <SCHEMA_PLACEHOLDER>.hk_versions(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.hk_file_tags(
    file_id uuid not null,
    tag_id uuid not null,
    constraint pk_hk_file_tags primary key (file_id, tag_id),
    constraint fk_hk_file_tags_files foreign key (file_id) references <SCHEMA_PLACEHOLDER>.hk_files(id),
    constraint fk_hk_file_tags_tags foreign key (tag_id) references <SCHEMA_PLACEHOLDER>.hk_tags(id)
);
`
