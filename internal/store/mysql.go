package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/internal/procerr"
	"github.com/ppy/osu-performance/pkg/logger"
)

const (
	maxOpenConns    = 16
	maxIdleConns    = 8
	connMaxLifetime = 30 * time.Minute
)

// MySQLConfig names the master/slave DSN components. Master handles writes
// and checkpoints; slave serves read-heavy queries during full rebuild.
type MySQLConfig struct {
	Host, Port, Username, Password, Database           string
	SlaveHost, SlavePort, SlaveUsername, SlavePassword, SlaveDatabase string
}

// MySQL implements Store over database/sql + go-sql-driver/mysql.
type MySQL struct {
	master *sql.DB
	slave  *sql.DB
	log    logger.Logger
}

// OpenMySQL opens the master and slave pools and tunes them the way a
// long-running batch/streaming service should: bounded connections, bounded
// idle connections, and a lifetime cap so the pool cycles through
// load-balancer-fronted replicas.
func OpenMySQL(cfg MySQLConfig, log logger.Logger) (*MySQL, error) {
	master, err := sql.Open("mysql", dsn(cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database))
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "open master connection")
	}
	tune(master)

	slave, err := sql.Open("mysql", dsn(cfg.SlaveUsername, cfg.SlavePassword, cfg.SlaveHost, cfg.SlavePort, cfg.SlaveDatabase))
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "open slave connection")
	}
	tune(slave)

	return &MySQL{master: master, slave: slave, log: log}, nil
}

func tune(db *sql.DB) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
}

func dsn(user, pass, host, port, db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, db)
}

// Close closes both pools.
func (m *MySQL) Close() error {
	if err := m.master.Close(); err != nil {
		return err
	}
	return m.slave.Close()
}

// ExecContext lets *MySQL double as a plain Execer for a Batch bound to the
// master connection.
func (m *MySQL) ExecContext(ctx context.Context, stmt string) error {
	_, err := m.master.ExecContext(ctx, stmt)
	if err != nil {
		return procerr.Wrap(procerr.ErrTransientDB, "exec statement")
	}
	return nil
}

// NewBatch returns a Batch bound to the master connection.
func (m *MySQL) NewBatch(hwm int) Batch {
	return newBatch(m, hwm, m.log)
}

func (m *MySQL) QueryBeatmapRange(ctx context.Context, mode mods.Gamemode, startID, endID int32) ([]beatmap.Row, error) {
	rows, err := m.slave.QueryContext(ctx,
		"SELECT osu_beatmaps.beatmap_id, countNormal, max_combo, mods, attrib_id, value, approved, score_version "+
			"FROM osu_beatmaps "+
			"JOIN osu_beatmap_difficulty_attribs ON osu_beatmap_difficulty_attribs.beatmap_id = osu_beatmaps.beatmap_id "+
			"WHERE osu_beatmaps.beatmap_id >= ? AND osu_beatmaps.beatmap_id < ? AND osu_beatmap_difficulty_attribs.mode = ?",
		startID, endID, int(mode))
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query beatmap range")
	}
	return scanBeatmapRows(rows)
}

func (m *MySQL) QueryBeatmapByID(ctx context.Context, mode mods.Gamemode, id int32) ([]beatmap.Row, error) {
	rows, err := m.slave.QueryContext(ctx,
		"SELECT osu_beatmaps.beatmap_id, countNormal, max_combo, mods, attrib_id, value, approved, score_version "+
			"FROM osu_beatmaps "+
			"JOIN osu_beatmap_difficulty_attribs ON osu_beatmap_difficulty_attribs.beatmap_id = osu_beatmaps.beatmap_id "+
			"WHERE osu_beatmaps.beatmap_id = ? AND osu_beatmap_difficulty_attribs.mode = ?",
		id, int(mode))
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query beatmap by id")
	}
	return scanBeatmapRows(rows)
}

func scanBeatmapRows(rows *sql.Rows) ([]beatmap.Row, error) {
	defer rows.Close()
	var out []beatmap.Row
	for rows.Next() {
		var r beatmap.Row
		var m uint32
		if err := rows.Scan(&r.BeatmapID, &r.NumHitCircles, &r.MaxCombo, &m, &r.AttribID, &r.Value, &r.Approved, &r.ScoreVersion); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan beatmap row")
		}
		r.Mods = mods.Mods(m)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQL) QueryBlacklist(ctx context.Context, mode mods.Gamemode) (map[int32]struct{}, error) {
	rows, err := m.slave.QueryContext(ctx,
		"SELECT beatmap_id FROM osu_beatmap_performance_blacklist WHERE mode = ?", int(mode))
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query blacklist")
	}
	defer rows.Close()
	out := make(map[int32]struct{})
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan blacklist row")
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (m *MySQL) QueryDifficultyAttribNames(ctx context.Context) (map[int32]string, error) {
	rows, err := m.slave.QueryContext(ctx, "SELECT attrib_id, name FROM osu_difficulty_attribs WHERE 1 ORDER BY attrib_id DESC")
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query difficulty attrib names")
	}
	defer rows.Close()
	out := make(map[int32]string)
	for rows.Next() {
		var id int32
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan attrib name row")
		}
		out[id] = name
	}
	return out, rows.Err()
}

func (m *MySQL) QueryUserScores(ctx context.Context, mode mods.Gamemode, userID int64) ([]ScoreRow, error) {
	stmt := fmt.Sprintf(
		"SELECT score_id, user_id, beatmap_id, score, maxcombo, count300, count100, count50, countmiss, countgeki, countkatu, enabled_mods, pp "+
			"FROM osu_scores%s_high WHERE user_id = ?", mode.Suffix())
	rows, err := m.slave.QueryContext(ctx, stmt, userID)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query user scores")
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		var m32 uint32
		var pp sql.NullFloat64
		if err := rows.Scan(&r.ScoreID, &r.UserID, &r.BeatmapID, &r.RawScore, &r.MaxCombo,
			&r.Count300, &r.Count100, &r.Count50, &r.CountMiss, &r.CountGeki, &r.CountKatu, &m32, &pp); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan user score row")
		}
		r.Mods = mods.Mods(m32)
		r.StoredPP = pp.Float64
		r.HasStoredPP = pp.Valid
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQL) QueryNewScores(ctx context.Context, mode mods.Gamemode, afterScoreID int64) ([]NewScoreRow, error) {
	stmt := fmt.Sprintf(
		"SELECT score_id, user_id FROM osu_scores%s_high WHERE score_id > ? AND pp IS NULL ORDER BY score_id ASC",
		mode.Suffix())
	rows, err := m.slave.QueryContext(ctx, stmt, afterScoreID)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query new scores")
	}
	defer rows.Close()

	var out []NewScoreRow
	for rows.Next() {
		var r NewScoreRow
		if err := rows.Scan(&r.ScoreID, &r.UserID); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan new score row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQL) QueryNewBeatmapSets(ctx context.Context, afterApprovedDate string) ([]NewBeatmapRow, error) {
	rows, err := m.slave.QueryContext(ctx,
		"SELECT beatmap_id, approved_date FROM osu_beatmapsets WHERE approved_date > ? ORDER BY approved_date ASC",
		afterApprovedDate)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query new beatmap sets")
	}
	defer rows.Close()

	var out []NewBeatmapRow
	for rows.Next() {
		var r NewBeatmapRow
		if err := rows.Scan(&r.BeatmapID, &r.ApprovedDate); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan new beatmap row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQL) QueryUserIDRange(ctx context.Context, mode mods.Gamemode, start, end int64) ([]int64, error) {
	stmt := fmt.Sprintf("SELECT user_id FROM osu_user_stats%s WHERE user_id >= ? AND user_id < ?", mode.Suffix())
	rows, err := m.slave.QueryContext(ctx, stmt, start, end)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query user id range")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, procerr.Wrap(procerr.ErrTransientDB, "scan user id row")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (m *MySQL) QueryMaxUserID(ctx context.Context, mode mods.Gamemode) (int64, error) {
	stmt := fmt.Sprintf("SELECT MAX(user_id) FROM osu_user_stats%s WHERE 1", mode.Suffix())
	var id sql.NullInt64
	if err := m.slave.QueryRowContext(ctx, stmt).Scan(&id); err != nil {
		return 0, procerr.Wrap(procerr.ErrTransientDB, "query max user id")
	}
	if !id.Valid {
		return 0, procerr.Wrap(procerr.ErrTransientDB, "no max user id available")
	}
	return id.Int64, nil
}

func (m *MySQL) QueryMaxApprovedDate(ctx context.Context) (string, error) {
	var date sql.NullString
	if err := m.slave.QueryRowContext(ctx, "SELECT MAX(approved_date) FROM osu_beatmapsets WHERE 1").Scan(&date); err != nil {
		return "", procerr.Wrap(procerr.ErrTransientDB, "query max approved date")
	}
	if !date.Valid {
		return "", procerr.Wrap(procerr.ErrTransientDB, "no max approved date available")
	}
	return date.String, nil
}

func (m *MySQL) QueryUserPP(ctx context.Context, mode mods.Gamemode, column string, userID int64) (float64, bool, error) {
	stmt := fmt.Sprintf("SELECT `%s` FROM osu_user_stats%s WHERE user_id = ?", column, mode.Suffix())
	var pp sql.NullFloat64
	if err := m.slave.QueryRowContext(ctx, stmt, userID).Scan(&pp); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, procerr.Wrap(procerr.ErrTransientDB, "query user pp")
	}
	return pp.Float64, pp.Valid, nil
}

func (m *MySQL) GetCount(ctx context.Context, key string) (int64, bool, error) {
	var count int64
	err := m.slave.QueryRowContext(ctx, "SELECT count FROM osu_counts WHERE name = ?", key).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, procerr.Wrap(procerr.ErrTransientDB, "get count")
	}
	return count, true, nil
}

func (m *MySQL) SetCount(ctx context.Context, key string, value int64) error {
	_, err := m.master.ExecContext(ctx,
		"INSERT INTO osu_counts(name, count) VALUES(?, ?) ON DUPLICATE KEY UPDATE name = VALUES(name), count = VALUES(count)",
		key, value)
	if err != nil {
		return procerr.Wrap(procerr.ErrTransientDB, "set count")
	}
	return nil
}

func (m *MySQL) InsertPerformanceChange(ctx context.Context, mode mods.Gamemode, userID int64, beatmapID int32, change float64) error {
	_, err := m.master.ExecContext(ctx,
		"INSERT INTO osu_user_performance_change(user_id, mode, beatmap_id, performance_change, rank) VALUES(?, ?, ?, ?, NULL)",
		userID, int(mode), beatmapID, change)
	if err != nil {
		return procerr.Wrap(procerr.ErrTransientDB, "insert performance change")
	}
	return nil
}

