package sqlite

// Schema DDL. Products are keyed by their position in the catalog so that a
// rename between saves needs no cascading update.
const (
	createProducts = `CREATE TABLE IF NOT EXISTS products (
    ordinal INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    product INTEGER NOT NULL,
    task_id INTEGER NOT NULL,
    state TEXT NOT NULL,
    title TEXT NOT NULL,
    type TEXT NOT NULL,
    creator TEXT NOT NULL,
    owner TEXT NOT NULL,
    verified INTEGER NOT NULL,
    PRIMARY KEY (product, task_id),
    FOREIGN KEY (product) REFERENCES products(ordinal) ON DELETE CASCADE
);`

	createNotes = `CREATE TABLE IF NOT EXISTS notes (
    product INTEGER NOT NULL,
    task_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (product, task_id, seq),
    FOREIGN KEY (product, task_id) REFERENCES tasks(product, task_id) ON DELETE CASCADE
);`

	createSaves = `CREATE TABLE IF NOT EXISTS saves (
    save_id TEXT PRIMARY KEY,
    saved_at TEXT NOT NULL,
    products INTEGER NOT NULL,
    tasks INTEGER NOT NULL
);`

	createSavesIndex = `CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves(saved_at);`
)

// schemaStatements lists the DDL in dependency order.
var schemaStatements = []string{
	createProducts,
	createTasks,
	createNotes,
	createSaves,
	createSavesIndex,
}
