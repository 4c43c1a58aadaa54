package db

// SchemaSQL contains the database schema initialization SQL.
// Every row carries an owner id; all non-admin queries filter on it.
// Metadata objects are FLEXIBLE: the application treats them as free-form
// key/value maps (project_id, position, archived, manuallyRenamed,
// bookmarked, study_sets, theme).
const SchemaSQL = `
    -- ==========================================================================
    -- CONVERSATION TABLE (a "board" in the UI)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS owner ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS metadata ON conversation TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_owner ON conversation FIELDS owner;

    -- ==========================================================================
    -- PROJECT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS project SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON project TYPE string;
    DEFINE FIELD IF NOT EXISTS owner ON project TYPE string;
    DEFINE FIELD IF NOT EXISTS metadata ON project TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON project TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON project TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS project_owner ON project FIELDS owner;

    -- ==========================================================================
    -- MESSAGE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON message TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS owner ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS metadata ON message TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_conversation ON message FIELDS conversation;
    DEFINE INDEX IF NOT EXISTS message_owner ON message FIELDS owner;

    -- ==========================================================================
    -- CANVAS NODE TABLE (panels and drawn shapes on a board)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS canvas_node SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON canvas_node TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS owner ON canvas_node TYPE string;
    DEFINE FIELD IF NOT EXISTS kind ON canvas_node TYPE string;
    DEFINE FIELD IF NOT EXISTS x ON canvas_node TYPE float;
    DEFINE FIELD IF NOT EXISTS y ON canvas_node TYPE float;
    DEFINE FIELD IF NOT EXISTS width ON canvas_node TYPE float;
    DEFINE FIELD IF NOT EXISTS height ON canvas_node TYPE float;
    DEFINE FIELD IF NOT EXISTS style ON canvas_node TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS text ON canvas_node TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON canvas_node TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS canvas_node_conversation ON canvas_node FIELDS conversation;
    DEFINE INDEX IF NOT EXISTS canvas_node_owner ON canvas_node FIELDS owner;

    -- ==========================================================================
    -- PROFILE TABLE (one row per user; study sets live inside metadata)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS profile SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON profile TYPE string;
    DEFINE FIELD IF NOT EXISTS email ON profile TYPE string;
    DEFINE FIELD IF NOT EXISTS metadata ON profile TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON profile TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON profile TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS profile_owner ON profile FIELDS owner UNIQUE;

    -- ==========================================================================
    -- SESSION TABLE (signed tokens are validated against these rows)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS session SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON session TYPE string;
    DEFINE FIELD IF NOT EXISTS expires_at ON session TYPE datetime;
    DEFINE FIELD IF NOT EXISTS created_at ON session TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS session_owner ON session FIELDS owner;
`
