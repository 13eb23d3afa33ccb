/* ============================================================= *\
   sqlite.go

   SQLite-backed relation/announcement feed, and a result sink that
   stages rows as CSV then bulk-loads them with the sqlite3 CLI's
   dot-commands -- the same stage-then-load two-step the original
   SQLQuerier::copy_*_to_db methods use with Postgres COPY FROM.
   database/sql + mattn/go-sqlite3 wiring ported from readers.go's
   SqliteReader/ReadSqlite.
\* ============================================================= */

package feed

import (
	"database/sql"
	"fmt"
	"os/exec"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
	"github.com/Emeline-1/bgp_extrapolator/stage"
)

/* ------------------------------------------------------- *\
 *                   SQLite relation feed
\* ------------------------------------------------------- */

// SQLiteRelationFeed reads the relationship table from a pre-
// populated SQLite database: columns (as1, as2, rel), rel using the
// same -1/0 encoding as the CAIDA as-rel file.
type SQLiteRelationFeed struct {
	Filename, Table string
}

func (f SQLiteRelationFeed) table() string {
	if f.Table != "" {
		return f.Table
	}
	return "relationships"
}

func (f SQLiteRelationFeed) Relations() ([]Relation, error) {
	db, err := sql.Open("sqlite3", f.Filename)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteRelationFeed]: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT as1, as2, rel FROM " + f.table())
	if err != nil {
		return nil, fmt.Errorf("[SQLiteRelationFeed]: %w", err)
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var as1, as2 uint32
		var rel int
		if err := rows.Scan(&as1, &as2, &rel); err != nil {
			return nil, fmt.Errorf("[SQLiteRelationFeed]: %w", err)
		}
		switch rel {
		case 0:
			out = append(out, Relation{ASN1: as1, ASN2: as2, Rel: announcement.Peer})
		case -1:
			out = append(out, Relation{ASN1: as2, ASN2: as1, Rel: announcement.Provider})
		default:
			continue
		}
	}
	return out, rows.Err()
}

/* ------------------------------------------------------- *\
 *                SQLite announcement feed
\* ------------------------------------------------------- */

// SQLiteAnnouncementFeed reads announcement rows from a table with
// columns (prefix, as_path, origin, monitor_asn, tstamp, prefix_id,
// block_id), as_path stored as a comma-separated string.
type SQLiteAnnouncementFeed struct {
	Filename, Table string
}

func (f SQLiteAnnouncementFeed) table() string {
	if f.Table != "" {
		return f.Table
	}
	return "announcements"
}

func (f SQLiteAnnouncementFeed) BlockIDs() ([]uint32, error) {
	db, err := sql.Open("sqlite3", f.Filename)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteAnnouncementFeed]: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT DISTINCT block_id FROM " + f.table() + " ORDER BY block_id")
	if err != nil {
		return nil, fmt.Errorf("[SQLiteAnnouncementFeed]: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("[SQLiteAnnouncementFeed]: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (f SQLiteAnnouncementFeed) Block(blockID uint32) ([]AnnouncementRow, error) {
	db, err := sql.Open("sqlite3", f.Filename)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteAnnouncementFeed]: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT prefix, as_path, origin, monitor_asn, tstamp, prefix_id FROM "+f.table()+" WHERE block_id = ?", blockID)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteAnnouncementFeed]: %w", err)
	}
	defer rows.Close()

	var out []AnnouncementRow
	for rows.Next() {
		var prefixStr, pathStr string
		var origin, monitor, prefixID uint32
		var tstamp int64
		if err := rows.Scan(&prefixStr, &pathStr, &origin, &monitor, &tstamp, &prefixID); err != nil {
			return nil, fmt.Errorf("[SQLiteAnnouncementFeed]: %w", err)
		}
		p, err := bgpprefix.New(prefixStr)
		if err != nil {
			continue
		}
		path, err := parseASPath(pathStr)
		if err != nil || len(path) == 0 || path[len(path)-1] != origin {
			continue
		}
		out = append(out, AnnouncementRow{
			Prefix:     p.WithID(prefixID),
			ASPath:     path,
			Origin:     origin,
			MonitorASN: monitor,
			Timestamp:  tstamp,
			PrefixID:   prefixID,
			BlockID:    blockID,
		})
	}
	return out, rows.Err()
}

/* ------------------------------------------------------- *\
 *                  SQLite result sink
\* ------------------------------------------------------- */

// SQLiteResultSink stages result rows as CSV in a stage.Dir, then
// bulk-loads each table with the sqlite3 CLI's ".import" dot-command
// on Close -- the Go equivalent of the original's COPY FROM, since
// database/sql has no bulk-import primitive of its own.
type SQLiteResultSink struct {
	Filename string
	Stage    *stage.Dir
	FullPath bool

	bestTable, deprefTable, supernodeTable string
}

// NewSQLiteResultSink stages into dir (created if needed) and will
// load into the tables named.
func NewSQLiteResultSink(filename string, dir *stage.Dir, fullPath bool) *SQLiteResultSink {
	return &SQLiteResultSink{
		Filename:       filename,
		Stage:          dir,
		FullPath:       fullPath,
		bestTable:      "best_results",
		deprefTable:    "depref_results",
		supernodeTable: "supernodes",
	}
}

func (s *SQLiteResultSink) writeRows(table string, rows []ResultRow) error {
	for _, row := range rows {
		line := fmt.Sprintf("%d,%s,%d,%d,%d,%d", row.ASN, row.Prefix.String(), row.Origin, row.ReceivedFromASN, row.Timestamp, row.PrefixID)
		if s.FullPath {
			line += "," + formatASPath(row.ASPath)
		}
		if err := s.Stage.WriteRow(table, line); err != nil {
			return fmt.Errorf("[SQLiteResultSink]: %w", err)
		}
	}
	return nil
}

func (s *SQLiteResultSink) WriteBest(rows []ResultRow) error {
	return s.writeRows(s.bestTable, rows)
}

func (s *SQLiteResultSink) WriteDeprefered(rows []ResultRow) error {
	return s.writeRows(s.deprefTable, rows)
}

func (s *SQLiteResultSink) WriteSupernodes(rows []SupernodeRow) error {
	for _, row := range rows {
		line := fmt.Sprintf("%d,%d", row.MemberASN, row.SupernodeASN)
		if err := s.Stage.WriteRow(s.supernodeTable, line); err != nil {
			return fmt.Errorf("[SQLiteResultSink]: %w", err)
		}
	}
	return nil
}

// Close flushes the staged CSVs, bulk-loads each into Filename via
// the sqlite3 CLI, then removes the staging directory.
func (s *SQLiteResultSink) Close() error {
	if err := s.Stage.Close(); err != nil {
		return fmt.Errorf("[SQLiteResultSink]: %w", err)
	}
	for _, table := range []string{s.bestTable, s.deprefTable, s.supernodeTable} {
		csvPath := s.Stage.Path() + "/" + table + ".csv"
		cmd := fmt.Sprintf(`sqlite3 %s ".mode csv" ".import %s %s"`, s.Filename, csvPath, table)
		if out, err := exec.Command("bash", "-c", cmd).CombinedOutput(); err != nil {
			return fmt.Errorf("[SQLiteResultSink]: bulk load %s: %w: %s", table, err, out)
		}
	}
	s.Stage.Cleanup()
	return nil
}
