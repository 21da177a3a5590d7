package sqlite

// Schema DDL. Statements are idempotent so an existing database survives
// a restart.
const (
	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    category_id TEXT PRIMARY KEY,
    guild_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createQuestions = `CREATE TABLE IF NOT EXISTS questions (
    question_id TEXT PRIMARY KEY,
    guild_id INTEGER NOT NULL,
    category_id TEXT NOT NULL,
    author_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    tags BLOB,
    thread_id INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    is_closed INTEGER NOT NULL DEFAULT 0,
    close_reason TEXT NOT NULL DEFAULT '',
    closer_id INTEGER NOT NULL DEFAULT 0,
    closed_at TEXT
);`

	createCachedMessages = `CREATE TABLE IF NOT EXISTS cached_messages (
    guild_id INTEGER NOT NULL,
    cache_key TEXT NOT NULL,
    channel_id INTEGER NOT NULL,
    message_id INTEGER NOT NULL,
    PRIMARY KEY (guild_id, cache_key)
);`
)

// Index DDL for common queries.
const (
	idxCategoriesGuild   = `CREATE INDEX IF NOT EXISTS idx_categories_guild ON categories(guild_id, created_at);`
	idxCategoriesName    = `CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories(guild_id, name COLLATE NOCASE);`
	idxQuestionsGuild    = `CREATE INDEX IF NOT EXISTS idx_questions_guild ON questions(guild_id, is_closed);`
	idxQuestionsThread   = `CREATE UNIQUE INDEX IF NOT EXISTS idx_questions_thread ON questions(thread_id);`
	idxQuestionsCategory = `CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCategories,
	createQuestions,
	createCachedMessages,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCategoriesGuild,
	idxCategoriesName,
	idxQuestionsGuild,
	idxQuestionsThread,
	idxQuestionsCategory,
}
