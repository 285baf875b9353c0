package db

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id               TEXT PRIMARY KEY,
    name             TEXT          NOT NULL,
    slug             TEXT          NOT NULL UNIQUE,
    description      TEXT          NOT NULL DEFAULT '',
    price            NUMERIC(12,2) NOT NULL CHECK (price > 0),
    compare_at_price NUMERIC(12,2),
    category         TEXT          NOT NULL DEFAULT '',
    tags             TEXT[]        NOT NULL DEFAULT '{}',
    images           TEXT[]        NOT NULL DEFAULT '{}',
    status           TEXT          NOT NULL DEFAULT 'draft',
    created_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_tags ON products USING GIN (tags);

-- Stock lives on its own row so a checkout can decrement it with a single
-- conditional UPDATE.
CREATE TABLE IF NOT EXISTS product_variants (
    product_id     TEXT          NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    sku            TEXT          NOT NULL,
    color          TEXT          NOT NULL,
    size           TEXT          NOT NULL,
    stock          INTEGER       NOT NULL CHECK (stock >= 0),
    price_override NUMERIC(12,2),
    position       INTEGER       NOT NULL DEFAULT 0,
    PRIMARY KEY (product_id, sku)
);

CREATE TABLE IF NOT EXISTS coupons (
    code        TEXT PRIMARY KEY,
    type        TEXT          NOT NULL,
    value       NUMERIC(12,2) NOT NULL CHECK (value > 0),
    min_order   NUMERIC(12,2) NOT NULL DEFAULT 0,
    usage_limit INTEGER,
    used_count  INTEGER       NOT NULL DEFAULT 0 CHECK (used_count >= 0),
    expires_at  TIMESTAMPTZ,
    active      BOOLEAN       NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);

-- nextval is never rolled back: ids are unique and increasing, gaps allowed.
CREATE SEQUENCE IF NOT EXISTS order_id_seq START 1;

CREATE TABLE IF NOT EXISTS orders (
    order_id       BIGINT PRIMARY KEY,
    status         TEXT          NOT NULL,
    lines          JSONB         NOT NULL,
    subtotal       NUMERIC(12,2) NOT NULL,
    discount       NUMERIC(12,2) NOT NULL,
    shipping_fee   NUMERIC(12,2) NOT NULL,
    total          NUMERIC(12,2) NOT NULL,
    coupon_code    TEXT          NOT NULL DEFAULT '',
    customer_name  TEXT          NOT NULL,
    customer_phone TEXT          NOT NULL,
    customer_email TEXT          NOT NULL DEFAULT '',
    shipping       JSONB         NOT NULL,
    payment        JSONB         NOT NULL,
    notes          TEXT          NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ   NOT NULL,
    updated_at     TIMESTAMPTZ   NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_customer_phone ON orders(customer_phone);

CREATE TABLE IF NOT EXISTS reviews (
    id         TEXT PRIMARY KEY,
    product_id TEXT        NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    name       TEXT        NOT NULL,
    rating     SMALLINT    NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment    TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id, created_at DESC);

CREATE TABLE IF NOT EXISTS settings (
    id         TEXT PRIMARY KEY,
    doc        JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
