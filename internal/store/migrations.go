package store

const schema = `
CREATE TABLE IF NOT EXISTS videos (
    video_id      TEXT PRIMARY KEY,
    platform      TEXT NOT NULL DEFAULT 'youtube',
    channel_id    TEXT NOT NULL DEFAULT '',
    channel_title TEXT NOT NULL DEFAULT '',
    title         TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    tags          TEXT NOT NULL DEFAULT '',
    category_id   INTEGER NOT NULL DEFAULT 0,
    category      TEXT NOT NULL DEFAULT '',
    duration_sec  INTEGER NOT NULL DEFAULT 0,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    is_shorts     BOOLEAN NOT NULL DEFAULT 0,
    view_count    INTEGER NOT NULL DEFAULT 0,
    like_count    INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    published_at  DATETIME,
    crawled_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_videos_platform ON videos(platform);
CREATE INDEX IF NOT EXISTS idx_videos_channel ON videos(channel_id);
CREATE INDEX IF NOT EXISTS idx_videos_category_id ON videos(category_id);
CREATE INDEX IF NOT EXISTS idx_videos_published_at ON videos(published_at);
CREATE INDEX IF NOT EXISTS idx_videos_crawled_at ON videos(crawled_at);

CREATE TABLE IF NOT EXISTS video_scores (
    video_id         TEXT PRIMARY KEY,
    platform         TEXT NOT NULL DEFAULT 'youtube',
    engagement_score REAL,
    sentiment_score  REAL,
    trend_score      REAL,
    total_score      REAL,
    updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS video_metrics_snapshots (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id      TEXT NOT NULL,
    platform      TEXT NOT NULL DEFAULT 'youtube',
    snapshot_date DATE NOT NULL,
    view_count    INTEGER NOT NULL DEFAULT 0,
    like_count    INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    UNIQUE(video_id, platform, snapshot_date)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_video ON video_metrics_snapshots(video_id, platform);
CREATE INDEX IF NOT EXISTS idx_snapshots_date ON video_metrics_snapshots(snapshot_date);

CREATE TABLE IF NOT EXISTS category_trends (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    category         TEXT NOT NULL,
    platform         TEXT NOT NULL DEFAULT 'youtube',
    date             DATE NOT NULL,
    video_count      INTEGER NOT NULL DEFAULT 0,
    video_count_prev INTEGER NOT NULL DEFAULT 0,
    avg_total_score  REAL,
    search_volume    INTEGER,
    growth_rate      REAL,
    rank             INTEGER,
    UNIQUE(category, platform, date)
);

CREATE INDEX IF NOT EXISTS idx_category_trends_date ON category_trends(date);
CREATE INDEX IF NOT EXISTS idx_category_trends_rank ON category_trends(rank);
`
