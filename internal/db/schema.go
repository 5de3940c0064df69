package db

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		github_url TEXT NOT NULL DEFAULT '',
		github_token TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS github_users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		external_id INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		external_id INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS labels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		color TEXT,
		external_id INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS repositories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL UNIQUE REFERENCES projects(id) ON DELETE CASCADE,
		external_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		private BOOLEAN NOT NULL DEFAULT 0,
		owner_id INTEGER REFERENCES github_users(id),
		description TEXT NOT NULL DEFAULT '',
		topics TEXT NOT NULL DEFAULT '[]',
		open_issues INTEGER NOT NULL DEFAULT 0,
		default_branch TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		hash TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS commits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		sha TEXT NOT NULL,
		author_external_id INTEGER,
		author_username TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		author_avatar TEXT NOT NULL DEFAULT '',
		commit_date TIMESTAMP,
		message TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		UNIQUE(project_id, sha)
	)`,

	`CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		issue_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		state TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		comments INTEGER NOT NULL DEFAULT 0,
		creator_id INTEGER REFERENCES github_users(id),
		created_at TIMESTAMP NOT NULL,
		closed_by_id INTEGER REFERENCES github_users(id),
		closed_at TIMESTAMP,
		has_assignees BOOLEAN NOT NULL DEFAULT 0,
		has_labels BOOLEAN NOT NULL DEFAULT 0,
		hash TEXT NOT NULL,
		UNIQUE(project_id, issue_id)
	)`,

	`CREATE TABLE IF NOT EXISTS issue_assignees (
		issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		member_id INTEGER NOT NULL REFERENCES members(id),
		PRIMARY KEY (issue_id, member_id)
	)`,

	`CREATE TABLE IF NOT EXISTS issue_labels (
		issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		label_id INTEGER NOT NULL REFERENCES labels(id),
		PRIMARY KEY (issue_id, label_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pull_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		pr_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		state TEXT NOT NULL,
		head_ref TEXT NOT NULL DEFAULT '',
		base_ref TEXT NOT NULL DEFAULT '',
		description TEXT,
		creator_id INTEGER REFERENCES github_users(id),
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		merged_at TIMESTAMP,
		comments INTEGER NOT NULL DEFAULT 0,
		review_comments INTEGER NOT NULL DEFAULT 0,
		additions INTEGER NOT NULL DEFAULT 0,
		deletions INTEGER NOT NULL DEFAULT 0,
		changed_files INTEGER NOT NULL DEFAULT 0,
		draft BOOLEAN NOT NULL DEFAULT 0,
		mergeable BOOLEAN,
		auto_merge BOOLEAN NOT NULL DEFAULT 0,
		maintainer_can_modify BOOLEAN NOT NULL DEFAULT 0,
		has_assignees BOOLEAN NOT NULL DEFAULT 0,
		has_reviewers BOOLEAN NOT NULL DEFAULT 0,
		has_labels BOOLEAN NOT NULL DEFAULT 0,
		hash TEXT NOT NULL,
		UNIQUE(project_id, pr_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pull_request_members (
		pull_request_id INTEGER NOT NULL REFERENCES pull_requests(id) ON DELETE CASCADE,
		member_id INTEGER NOT NULL REFERENCES members(id),
		role TEXT NOT NULL,
		PRIMARY KEY (pull_request_id, member_id, role)
	)`,

	`CREATE TABLE IF NOT EXISTS pull_request_labels (
		pull_request_id INTEGER NOT NULL REFERENCES pull_requests(id) ON DELETE CASCADE,
		label_id INTEGER NOT NULL REFERENCES labels(id),
		PRIMARY KEY (pull_request_id, label_id)
	)`,

	`CREATE TABLE IF NOT EXISTS sync_state (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		total_pages INTEGER NOT NULL DEFAULT 1,
		last_sync_time TIMESTAMP NOT NULL,
		PRIMARY KEY (project_id, kind)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_commits_project_date ON commits(project_id, commit_date)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_project_created ON issues(project_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_pull_requests_project_created ON pull_requests(project_id, created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		github_url TEXT NOT NULL DEFAULT '',
		github_token TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS github_users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		external_id BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS members (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		external_id BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS labels (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		color TEXT,
		external_id BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS repositories (
		id BIGSERIAL PRIMARY KEY,
		project_id TEXT NOT NULL UNIQUE REFERENCES projects(id) ON DELETE CASCADE,
		external_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		private BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id BIGINT REFERENCES github_users(id),
		description TEXT NOT NULL DEFAULT '',
		topics TEXT NOT NULL DEFAULT '[]',
		open_issues INTEGER NOT NULL DEFAULT 0,
		default_branch TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		hash TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS commits (
		id BIGSERIAL PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		sha TEXT NOT NULL,
		author_external_id BIGINT,
		author_username TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		author_avatar TEXT NOT NULL DEFAULT '',
		commit_date TIMESTAMPTZ,
		message TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		UNIQUE(project_id, sha)
	)`,

	`CREATE TABLE IF NOT EXISTS issues (
		id BIGSERIAL PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		issue_id BIGINT NOT NULL,
		number INTEGER NOT NULL,
		state TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		comments INTEGER NOT NULL DEFAULT 0,
		creator_id BIGINT REFERENCES github_users(id),
		created_at TIMESTAMPTZ NOT NULL,
		closed_by_id BIGINT REFERENCES github_users(id),
		closed_at TIMESTAMPTZ,
		has_assignees BOOLEAN NOT NULL DEFAULT FALSE,
		has_labels BOOLEAN NOT NULL DEFAULT FALSE,
		hash TEXT NOT NULL,
		UNIQUE(project_id, issue_id)
	)`,

	`CREATE TABLE IF NOT EXISTS issue_assignees (
		issue_id BIGINT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		member_id BIGINT NOT NULL REFERENCES members(id),
		PRIMARY KEY (issue_id, member_id)
	)`,

	`CREATE TABLE IF NOT EXISTS issue_labels (
		issue_id BIGINT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		label_id BIGINT NOT NULL REFERENCES labels(id),
		PRIMARY KEY (issue_id, label_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pull_requests (
		id BIGSERIAL PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		pr_id BIGINT NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		state TEXT NOT NULL,
		head_ref TEXT NOT NULL DEFAULT '',
		base_ref TEXT NOT NULL DEFAULT '',
		description TEXT,
		creator_id BIGINT REFERENCES github_users(id),
		created_at TIMESTAMPTZ NOT NULL,
		closed_at TIMESTAMPTZ,
		merged_at TIMESTAMPTZ,
		comments INTEGER NOT NULL DEFAULT 0,
		review_comments INTEGER NOT NULL DEFAULT 0,
		additions INTEGER NOT NULL DEFAULT 0,
		deletions INTEGER NOT NULL DEFAULT 0,
		changed_files INTEGER NOT NULL DEFAULT 0,
		draft BOOLEAN NOT NULL DEFAULT FALSE,
		mergeable BOOLEAN,
		auto_merge BOOLEAN NOT NULL DEFAULT FALSE,
		maintainer_can_modify BOOLEAN NOT NULL DEFAULT FALSE,
		has_assignees BOOLEAN NOT NULL DEFAULT FALSE,
		has_reviewers BOOLEAN NOT NULL DEFAULT FALSE,
		has_labels BOOLEAN NOT NULL DEFAULT FALSE,
		hash TEXT NOT NULL,
		UNIQUE(project_id, pr_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pull_request_members (
		pull_request_id BIGINT NOT NULL REFERENCES pull_requests(id) ON DELETE CASCADE,
		member_id BIGINT NOT NULL REFERENCES members(id),
		role TEXT NOT NULL,
		PRIMARY KEY (pull_request_id, member_id, role)
	)`,

	`CREATE TABLE IF NOT EXISTS pull_request_labels (
		pull_request_id BIGINT NOT NULL REFERENCES pull_requests(id) ON DELETE CASCADE,
		label_id BIGINT NOT NULL REFERENCES labels(id),
		PRIMARY KEY (pull_request_id, label_id)
	)`,

	`CREATE TABLE IF NOT EXISTS sync_state (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		total_pages INTEGER NOT NULL DEFAULT 1,
		last_sync_time TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (project_id, kind)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_commits_project_date ON commits(project_id, commit_date)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_project_created ON issues(project_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_pull_requests_project_created ON pull_requests(project_id, created_at)`,
}
