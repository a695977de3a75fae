package database

const migration001Up = `
CREATE TABLE IF NOT EXISTS attendance (
    id UUID PRIMARY KEY,
    date DATE NOT NULL,
    class_id TEXT NOT NULL,
    total_students INTEGER NOT NULL CHECK (total_students >= 0),
    present_students INTEGER NOT NULL CHECK (present_students >= 0),
    absent_students INTEGER NOT NULL CHECK (absent_students >= 0),
    absent_roll_numbers INTEGER[] NOT NULL DEFAULT '{}',
    attendance_percentage DOUBLE PRECISION NOT NULL CHECK (attendance_percentage BETWEEN 0 AND 100),
    teacher_name TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CONSTRAINT attendance_date_class_unique UNIQUE (date, class_id)
);

CREATE INDEX IF NOT EXISTS idx_attendance_class_date ON attendance (class_id, date DESC);

CREATE TABLE IF NOT EXISTS classes (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    division TEXT NOT NULL,
    department TEXT,
    total_students INTEGER NOT NULL DEFAULT 0,
    teacher_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CONSTRAINT classes_name_unique UNIQUE (name)
);

CREATE INDEX IF NOT EXISTS idx_classes_division ON classes (division);

CREATE TABLE IF NOT EXISTS reports (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    division TEXT,
    class_id TEXT,
    format TEXT NOT NULL DEFAULT 'summary',
    generated_by TEXT NOT NULL DEFAULT 'System',
    data JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CHECK (end_date > start_date)
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS reports;
DROP TABLE IF EXISTS classes;
DROP TABLE IF EXISTS attendance;
`

// Migrations returns the embedded schema migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_attendance_schema", UpSQL: migration001Up, DownSQL: migration001Down},
	}
}
