package migrator

// status store
const migration_1 = `
CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_customers(
    id uuid not null default(uuid_generate_v4()),
    internal_id varchar not null,
    name varchar not null,
    agreement_registration varchar,
    invoice_address varchar,
    invoice_reference varchar,
    invoice_contact_id uuid,
    project_account_ki varchar,
    project_account_kth varchar,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_customers primary key (id),
    constraint uq_cg_customers_internal_id unique (internal_id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_users(
    id uuid not null default(uuid_generate_v4()),
    name varchar not null,
    email varchar not null,
    customer_id uuid,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_users primary key (id),
    constraint uq_cg_users_email unique (email),
    constraint fk_cg_users_customers foreign key (customer_id) references <SCHEMA_PLACEHOLDER>.cg_customers(id)
);

ALTER TABLE <SCHEMA_PLACEHOLDER>.cg_customers
    ADD constraint fk_cg_customers_invoice_contact foreign key (invoice_contact_id) references <SCHEMA_PLACEHOLDER>.cg_users(id);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_applications(
    id uuid not null default(uuid_generate_v4()),
    tag varchar not null,
    category varchar not null,
    description varchar not null default(''),
    is_external bool not null default(false),
    target_reads bigint not null default(0),
    percent_reads_guaranteed int not null default(75),
    percent_kth int,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_applications primary key (id),
    constraint uq_cg_applications_tag unique (tag)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_application_versions(
    id uuid not null default(uuid_generate_v4()),
    application_id uuid not null,
    version int not null,
    valid_from timestamp not null default(timezone('utc', now())),
    price_standard numeric(12,2),
    price_priority numeric(12,2),
    price_express numeric(12,2),
    price_research numeric(12,2),
    price_clinical_trials numeric(12,2),
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_application_versions primary key (id),
    constraint uq_cg_application_versions unique (application_id, version),
    constraint fk_cg_application_versions_applications foreign key (application_id) references <SCHEMA_PLACEHOLDER>.cg_applications(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_invoices(
    id uuid not null default(uuid_generate_v4()),
    customer_id uuid not null,
    discount int not null default(0),
    invoiced_at timestamp,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_invoices primary key (id),
    constraint fk_cg_invoices_customers foreign key (customer_id) references <SCHEMA_PLACEHOLDER>.cg_customers(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_families(
    id uuid not null default(uuid_generate_v4()),
    internal_id varchar not null,
    name varchar not null,
    customer_id uuid not null,
    priority int not null default(1),
    panels text[] not null default('{}'),
    action varchar,
    require_qcok bool not null default(false),
    ordered_at timestamp not null default(timezone('utc', now())),
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_families primary key (id),
    constraint uq_cg_families_internal_id unique (internal_id),
    constraint uq_cg_families_customer_name unique (customer_id, name),
    constraint fk_cg_families_customers foreign key (customer_id) references <SCHEMA_PLACEHOLDER>.cg_customers(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_samples(
    id uuid not null default(uuid_generate_v4()),
    internal_id varchar not null,
    name varchar not null,
    customer_id uuid not null,
    application_version_id uuid not null,
    sex varchar not null default('unknown'),
    priority int not null default(1),
    ticket_number int,
    order_name varchar not null default(''),
    comment varchar,
    is_tumour bool not null default(false),
    capture_kit varchar,
    data_analysis varchar,
    reads bigint not null default(0),
    downsampled_to bigint,
    ordered_at timestamp not null default(timezone('utc', now())),
    received_at timestamp,
    prepared_at timestamp,
    sequenced_at timestamp,
    delivered_at timestamp,
    invoiced_at timestamp,
    invoice_id uuid,
    loqusdb_id varchar,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_samples primary key (id),
    constraint uq_cg_samples_internal_id unique (internal_id),
    constraint fk_cg_samples_customers foreign key (customer_id) references <SCHEMA_PLACEHOLDER>.cg_customers(id),
    constraint fk_cg_samples_application_versions foreign key (application_version_id) references <SCHEMA_PLACEHOLDER>.cg_application_versions(id),
    constraint fk_cg_samples_invoices foreign key (invoice_id) references <SCHEMA_PLACEHOLDER>.cg_invoices(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_family_samples(
    id uuid not null default(uuid_generate_v4()),
    family_id uuid not null,
    sample_id uuid not null,
    status varchar not null default('unknown'),
    mother_id uuid,
    father_id uuid,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_family_samples primary key (id),
    constraint uq_cg_family_samples unique (family_id, sample_id),
    constraint fk_cg_family_samples_families foreign key (family_id) references <SCHEMA_PLACEHOLDER>.cg_families(id),
    constraint fk_cg_family_samples_samples foreign key (sample_id) references <SCHEMA_PLACEHOLDER>.cg_samples(id),
    constraint fk_cg_family_samples_mother foreign key (mother_id) references <SCHEMA_PLACEHOLDER>.cg_samples(id),
    constraint fk_cg_family_samples_father foreign key (father_id) references <SCHEMA_PLACEHOLDER>.cg_samples(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_pools(
    id uuid not null default(uuid_generate_v4()),
    name varchar not null,
    order_name varchar not null default(''),
    ticket_number int,
    customer_id uuid not null,
    application_version_id uuid not null,
    ordered_at timestamp not null default(timezone('utc', now())),
    received_at timestamp,
    delivered_at timestamp,
    invoiced_at timestamp,
    invoice_id uuid,
    no_invoice bool not null default(false),
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_pools primary key (id),
    constraint fk_cg_pools_customers foreign key (customer_id) references <SCHEMA_PLACEHOLDER>.cg_customers(id),
    constraint fk_cg_pools_application_versions foreign key (application_version_id) references <SCHEMA_PLACEHOLDER>.cg_application_versions(id),
    constraint fk_cg_pools_invoices foreign key (invoice_id) references <SCHEMA_PLACEHOLDER>.cg_invoices(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_microbial_samples(
    id uuid not null default(uuid_generate_v4()),
    internal_id varchar not null,
    name varchar not null,
    order_name varchar not null default(''),
    ticket_number int,
    customer_id uuid not null,
    application_version_id uuid not null,
    organism varchar,
    reference_genome varchar,
    priority int not null default(1),
    ordered_at timestamp not null default(timezone('utc', now())),
    received_at timestamp,
    prepared_at timestamp,
    sequenced_at timestamp,
    delivered_at timestamp,
    invoiced_at timestamp,
    invoice_id uuid,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_microbial_samples primary key (id),
    constraint uq_cg_microbial_samples_internal_id unique (internal_id),
    constraint fk_cg_microbial_samples_customers foreign key (customer_id) references <SCHEMA_PLACEHOLDER>.cg_customers(id),
    constraint fk_cg_microbial_samples_application_versions foreign key (application_version_id) references <SCHEMA_PLACEHOLDER>.cg_application_versions(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_flowcells(
    id uuid not null default(uuid_generate_v4()),
    name varchar not null,
    sequencer_name varchar not null default(''),
    sequencer_type varchar not null default(''),
    sequenced_at timestamp,
    status varchar not null default('ondisk'),
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_flowcells primary key (id),
    constraint uq_cg_flowcells_name unique (name)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_flowcell_samples(
    flowcell_id uuid not null,
    sample_id uuid not null,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_flowcell_samples primary key (flowcell_id, sample_id),
    constraint fk_cg_flowcell_samples_flowcells foreign key (flowcell_id) references <SCHEMA_PLACEHOLDER>.cg_flowcells(id),
    constraint fk_cg_flowcell_samples_samples foreign key (sample_id) references <SCHEMA_PLACEHOLDER>.cg_samples(id)
);

CREATE TABLE <SCHEMA_PLACEHOLDER>.cg_analyses(
    id uuid not null default(uuid_generate_v4()),
    family_id uuid not null,
    pipeline varchar not null,
    pipeline_version varchar,
    started_at timestamp,
    completed_at timestamp,
    uploaded_at timestamp,
    is_primary bool not null default(false),
    is_deleted bool not null default(false),
    config_path varchar,
    created_at timestamp not null default(timezone('utc', now())),
    constraint pk_cg_analyses primary key (id),
    constraint fk_cg_analyses_families foreign key (family_id) references <SCHEMA_PLACEHOLDER>.cg_families(id)
);

CREATE INDEX idx_cg_samples_received_at ON <SCHEMA_PLACEHOLDER>.cg_samples(received_at);
CREATE INDEX idx_cg_samples_invoice_id ON <SCHEMA_PLACEHOLDER>.cg_samples(invoice_id);
CREATE INDEX idx_cg_pools_ticket_number ON <SCHEMA_PLACEHOLDER>.cg_pools(ticket_number);
`
