package db

// questions_pending.active: 2 = awaiting review, 0 = rejected/deactivated.
// club_roles_pending.is_approve: waiting | approved | rejected.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
  roll_no TEXT PRIMARY KEY,
  email TEXT NOT NULL DEFAULT '',
  full_name TEXT NOT NULL DEFAULT '',
  class TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  password_hash TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS clubs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS club_roles (
  club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  user_roll TEXT NOT NULL,
  role TEXT NOT NULL,
  can_post_questions INTEGER NOT NULL DEFAULT 0,
  approved_at INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (club_id, user_roll)
);

CREATE TABLE IF NOT EXISTS club_roles_pending (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  user_roll TEXT NOT NULL,
  role TEXT NOT NULL,
  can_post_questions INTEGER NOT NULL DEFAULT 0,
  is_approve TEXT NOT NULL DEFAULT 'waiting',
  requested_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL DEFAULT 0,
  UNIQUE (club_id, user_roll)
);

CREATE TABLE IF NOT EXISTS tests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  test_type TEXT NOT NULL CHECK (test_type IN ('daily','weekly')),
  test_date TEXT NOT NULL,
  created_by_roll TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL DEFAULT 0,
  UNIQUE (club_id, test_type, test_date)
);

CREATE TABLE IF NOT EXISTS questions_pending (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  posted_by_roll TEXT NOT NULL DEFAULT '',
  question_text TEXT NOT NULL,
  test_id INTEGER REFERENCES tests(id) ON DELETE SET NULL,
  active INTEGER NOT NULL DEFAULT 2,
  created_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions_pending_options (
  pending_question_id INTEGER PRIMARY KEY REFERENCES questions_pending(id) ON DELETE CASCADE,
  option_a TEXT NOT NULL,
  option_b TEXT NOT NULL,
  option_c TEXT NOT NULL,
  option_d TEXT NOT NULL,
  correct_option INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  test_id INTEGER REFERENCES tests(id) ON DELETE SET NULL,
  question_text TEXT NOT NULL,
  created_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS options_four (
  question_id INTEGER PRIMARY KEY REFERENCES questions(id) ON DELETE CASCADE,
  option_a TEXT NOT NULL,
  option_b TEXT NOT NULL,
  option_c TEXT NOT NULL,
  option_d TEXT NOT NULL,
  correct_option INTEGER NOT NULL CHECK (correct_option BETWEEN 1 AND 4)
);

CREATE TABLE IF NOT EXISTS attempts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_roll TEXT NOT NULL,
  test_id INTEGER,
  score INTEGER NOT NULL DEFAULT 0,
  total_marks INTEGER NOT NULL DEFAULT 0,
  submitted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts_tests (
  attempt_id INTEGER NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  test_id INTEGER NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  total_marks INTEGER NOT NULL DEFAULT 0,
  submitted_at INTEGER NOT NULL,
  PRIMARY KEY (attempt_id, test_id)
);

CREATE TABLE IF NOT EXISTS answers (
  attempt_id INTEGER NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id INTEGER NOT NULL,
  selected_option INTEGER NOT NULL,
  PRIMARY KEY (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS attempt_windows (
  user_roll TEXT NOT NULL,
  test_type TEXT NOT NULL,
  test_date TEXT NOT NULL,
  attempt_id INTEGER NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  PRIMARY KEY (user_roll, test_type, test_date)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS tests_type_date_idx ON tests (test_type, test_date);
CREATE INDEX IF NOT EXISTS questions_test_idx ON questions (test_id);
CREATE INDEX IF NOT EXISTS attempts_user_idx ON attempts (user_roll)
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  roll_no TEXT PRIMARY KEY,
  email TEXT NOT NULL DEFAULT '',
  full_name TEXT NOT NULL DEFAULT '',
  class TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  password_hash TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS clubs (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS club_roles (
  club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  user_roll TEXT NOT NULL,
  role TEXT NOT NULL,
  can_post_questions INTEGER NOT NULL DEFAULT 0,
  approved_at BIGINT NOT NULL DEFAULT 0,
  PRIMARY KEY (club_id, user_roll)
);

CREATE TABLE IF NOT EXISTS club_roles_pending (
  id BIGSERIAL PRIMARY KEY,
  club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  user_roll TEXT NOT NULL,
  role TEXT NOT NULL,
  can_post_questions INTEGER NOT NULL DEFAULT 0,
  is_approve TEXT NOT NULL DEFAULT 'waiting',
  requested_by TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL DEFAULT 0,
  UNIQUE (club_id, user_roll)
);

CREATE TABLE IF NOT EXISTS tests (
  id BIGSERIAL PRIMARY KEY,
  club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  test_type TEXT NOT NULL CHECK (test_type IN ('daily','weekly')),
  test_date TEXT NOT NULL,
  created_by_roll TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at BIGINT NOT NULL DEFAULT 0,
  UNIQUE (club_id, test_type, test_date)
);

CREATE TABLE IF NOT EXISTS questions_pending (
  id BIGSERIAL PRIMARY KEY,
  club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  posted_by_roll TEXT NOT NULL DEFAULT '',
  question_text TEXT NOT NULL,
  test_id BIGINT REFERENCES tests(id) ON DELETE SET NULL,
  active INTEGER NOT NULL DEFAULT 2,
  created_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions_pending_options (
  pending_question_id BIGINT PRIMARY KEY REFERENCES questions_pending(id) ON DELETE CASCADE,
  option_a TEXT NOT NULL,
  option_b TEXT NOT NULL,
  option_c TEXT NOT NULL,
  option_d TEXT NOT NULL,
  correct_option INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
  test_id BIGINT REFERENCES tests(id) ON DELETE SET NULL,
  question_text TEXT NOT NULL,
  created_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS options_four (
  question_id BIGINT PRIMARY KEY REFERENCES questions(id) ON DELETE CASCADE,
  option_a TEXT NOT NULL,
  option_b TEXT NOT NULL,
  option_c TEXT NOT NULL,
  option_d TEXT NOT NULL,
  correct_option INTEGER NOT NULL CHECK (correct_option BETWEEN 1 AND 4)
);

CREATE TABLE IF NOT EXISTS attempts (
  id BIGSERIAL PRIMARY KEY,
  user_roll TEXT NOT NULL,
  test_id BIGINT,
  score INTEGER NOT NULL DEFAULT 0,
  total_marks INTEGER NOT NULL DEFAULT 0,
  submitted_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts_tests (
  attempt_id BIGINT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  test_id BIGINT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  total_marks INTEGER NOT NULL DEFAULT 0,
  submitted_at BIGINT NOT NULL,
  PRIMARY KEY (attempt_id, test_id)
);

CREATE TABLE IF NOT EXISTS answers (
  attempt_id BIGINT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id BIGINT NOT NULL,
  selected_option INTEGER NOT NULL,
  PRIMARY KEY (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS attempt_windows (
  user_roll TEXT NOT NULL,
  test_type TEXT NOT NULL,
  test_date TEXT NOT NULL,
  attempt_id BIGINT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  PRIMARY KEY (user_roll, test_type, test_date)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS tests_type_date_idx ON tests (test_type, test_date);
CREATE INDEX IF NOT EXISTS questions_test_idx ON questions (test_id);
CREATE INDEX IF NOT EXISTS attempts_user_idx ON attempts (user_roll)
`
