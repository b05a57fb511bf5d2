package sqlite

const schema = `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Tickets table
CREATE TABLE IF NOT EXISTS tickets (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL CHECK(length(title) <= 500),
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'backlog',
    priority TEXT,
    position REAL NOT NULL DEFAULT 0,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    epic_id TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    CHECK ((status = 'done') = (completed_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_tickets_project ON tickets(project_id);
CREATE INDEX IF NOT EXISTS idx_tickets_position ON tickets(status, position);

-- Ticket comments (append-only audit log)
CREATE TABLE IF NOT EXISTS ticket_comments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticket_id TEXT NOT NULL,
    author TEXT NOT NULL,
    comment_type TEXT NOT NULL DEFAULT 'comment',
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ticket_comments_ticket ON ticket_comments(ticket_id);

-- Workflow state projection (at most one row per ticket, best effort)
CREATE TABLE IF NOT EXISTS ticket_workflow_state (
    ticket_id TEXT PRIMARY KEY,
    current_phase TEXT NOT NULL DEFAULT 'backlog',
    review_iteration INTEGER NOT NULL DEFAULT 0,
    findings_count INTEGER NOT NULL DEFAULT 0,
    findings_fixed INTEGER NOT NULL DEFAULT 0 CHECK(findings_fixed <= findings_count),
    demo_generated INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

-- Review findings
CREATE TABLE IF NOT EXISTS review_findings (
    id TEXT PRIMARY KEY,
    ticket_id TEXT NOT NULL,
    iteration INTEGER NOT NULL DEFAULT 0,
    agent TEXT NOT NULL DEFAULT '',
    severity TEXT NOT NULL CHECK(severity IN ('critical', 'major', 'minor')),
    category TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'fixed')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fixed_at DATETIME,
    FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_review_findings_ticket ON review_findings(ticket_id, status);

-- Demo scripts (one per ticket)
CREATE TABLE IF NOT EXISTS demo_scripts (
    ticket_id TEXT PRIMARY KEY,
    generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    feedback TEXT NOT NULL DEFAULT '',
    passed INTEGER,
    FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS demo_steps (
    ticket_id TEXT NOT NULL,
    step_order INTEGER NOT NULL,
    description TEXT NOT NULL,
    expected_outcome TEXT NOT NULL DEFAULT '',
    step_type TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (ticket_id, step_order),
    FOREIGN KEY (ticket_id) REFERENCES demo_scripts(ticket_id) ON DELETE CASCADE
);

-- Agent sessions
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    ticket_id TEXT NOT NULL,
    project_id TEXT NOT NULL DEFAULT '',
    current_state TEXT NOT NULL DEFAULT 'idle',
    outcome TEXT,
    error_message TEXT,
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_ticket ON sessions(ticket_id, completed_at);

-- Session state history (append-only)
CREATE TABLE IF NOT EXISTS session_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    state TEXT NOT NULL,
    metadata TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_session_history_session ON session_history(session_id);

-- Linked commits
CREATE TABLE IF NOT EXISTS ticket_commits (
    ticket_id TEXT NOT NULL,
    hash TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    linked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (ticket_id, hash),
    FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

-- Config table (for storing settings like ticket prefix)
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Counter table for short ticket ids
CREATE TABLE IF NOT EXISTS ticket_counters (
    prefix TEXT PRIMARY KEY,
    next_id INTEGER NOT NULL DEFAULT 1
);
`
