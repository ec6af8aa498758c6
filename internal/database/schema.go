package database

// Timestamps are unix seconds. Counter columns are maintained by the Go code
// that mutates the link tables, never by triggers.
const schema = `
CREATE TABLE IF NOT EXISTS media_reference (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	media_series_reference INTEGER NOT NULL DEFAULT 0,
	series_name TEXT UNIQUE,
	title TEXT,
	description TEXT,
	source_url TEXT,
	source_created_at INTEGER,
	metadata TEXT,
	stars INTEGER NOT NULL DEFAULT 0,
	view_count INTEGER NOT NULL DEFAULT 0,
	last_viewed_at INTEGER,
	tag_count INTEGER NOT NULL DEFAULT 0,
	media_series_length INTEGER NOT NULL DEFAULT 0,
	media_series_membership_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	CHECK (media_series_reference = 1 OR series_name IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_media_reference_created ON media_reference(created_at, id);
CREATE INDEX IF NOT EXISTS idx_media_reference_updated ON media_reference(updated_at, id);
CREATE INDEX IF NOT EXISTS idx_media_reference_viewed ON media_reference(last_viewed_at, id);

CREATE TABLE IF NOT EXISTS media_file (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	media_reference_id INTEGER NOT NULL UNIQUE REFERENCES media_reference(id),
	filepath TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL UNIQUE,
	media_type TEXT NOT NULL CHECK (media_type IN ('IMAGE', 'VIDEO', 'AUDIO')),
	codec TEXT NOT NULL,
	content_type TEXT NOT NULL,
	width INTEGER,
	height INTEGER,
	animated INTEGER NOT NULL DEFAULT 0,
	audio INTEGER NOT NULL DEFAULT 0,
	duration REAL NOT NULL DEFAULT 0,
	framerate REAL NOT NULL DEFAULT 0,
	framecount INTEGER NOT NULL DEFAULT 0,
	filesize_bytes INTEGER NOT NULL,
	thumbnail_directory_path TEXT NOT NULL,
	thumbnail_count INTEGER NOT NULL DEFAULT 0,
	keypoint_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	CHECK (media_type = 'AUDIO' OR (width > 0 AND height > 0))
);

CREATE INDEX IF NOT EXISTS idx_media_file_duration ON media_file(duration);

CREATE TABLE IF NOT EXISTS media_thumbnail (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	media_file_id INTEGER NOT NULL REFERENCES media_file(id),
	filepath TEXT NOT NULL UNIQUE,
	media_timestamp REAL NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('standard', 'keypoint')),
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_media_thumbnail_file ON media_thumbnail(media_file_id, media_timestamp);

CREATE TABLE IF NOT EXISTS tag_group (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	media_reference_count INTEGER NOT NULL DEFAULT 0,
	unread_media_reference_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE TABLE IF NOT EXISTS tag (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag_group_id INTEGER NOT NULL REFERENCES tag_group(id),
	name TEXT NOT NULL,
	media_reference_count INTEGER NOT NULL DEFAULT 0,
	unread_media_reference_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	UNIQUE (name, tag_group_id)
);

CREATE TABLE IF NOT EXISTS media_reference_tag (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	media_reference_id INTEGER NOT NULL REFERENCES media_reference(id),
	tag_id INTEGER NOT NULL REFERENCES tag(id),
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	UNIQUE (media_reference_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_media_reference_tag_tag ON media_reference_tag(tag_id, media_reference_id);

CREATE TABLE IF NOT EXISTS media_series_item (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	series_id INTEGER NOT NULL REFERENCES media_reference(id),
	media_reference_id INTEGER NOT NULL REFERENCES media_reference(id),
	series_index INTEGER NOT NULL,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	UNIQUE (series_id, series_index)
);

CREATE INDEX IF NOT EXISTS idx_media_series_item_member ON media_series_item(media_reference_id);

CREATE TABLE IF NOT EXISTS media_keypoint (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	media_file_id INTEGER NOT NULL REFERENCES media_file(id),
	tag_id INTEGER NOT NULL REFERENCES tag(id),
	media_timestamp REAL NOT NULL,
	duration REAL,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_media_keypoint_file ON media_keypoint(media_file_id, media_timestamp);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT
);
`
