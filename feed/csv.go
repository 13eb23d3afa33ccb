/* ============================================================= *\
   csv.go

   Flat-file relation/announcement feed and CSV result sink. The
   as-rel line format and the CompressedReader's gzip/bzip2 handling
   are ported from the teacher's caida_file_readers.go (read_as_rel)
   and readers.go (WartsReader.Open, generalized off the
   warts/sc_tnt-specific decompression to any line-oriented feed).
\* ============================================================= */

package feed

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// CompressedReader opens filename and exposes a line scanner,
// transparently decompressing .gz and .bz2 inputs.
type CompressedReader struct {
	filename     string
	fp           io.ReadCloser
	decompressed io.Reader
	toClose      io.ReadCloser // bzip2.Reader has no Close method
}

// NewCompressedReader constructs a reader bound to filename; call
// Open before Scanner.
func NewCompressedReader(filename string) *CompressedReader {
	return &CompressedReader{filename: filename}
}

// Open opens the underlying file and wires up decompression by
// filename suffix.
func (r *CompressedReader) Open() error {
	var err error
	r.fp, err = os.Open(r.filename)
	if err != nil {
		return fmt.Errorf("[CompressedReader]: %w: %s", err, r.filename)
	}

	switch {
	case strings.HasSuffix(r.filename, ".gz"):
		gz, err := gzip.NewReader(r.fp)
		if err != nil {
			r.fp.Close()
			return fmt.Errorf("[CompressedReader]: %w: %s", err, r.filename)
		}
		r.toClose = gz
		r.decompressed = gz
	case strings.HasSuffix(r.filename, ".bz2"):
		r.decompressed = bzip2.NewReader(r.fp)
	default:
		r.decompressed = r.fp
	}
	return nil
}

// Scanner returns a line scanner over the decompressed content.
func (r *CompressedReader) Scanner() *bufio.Scanner {
	return bufio.NewScanner(r.decompressed)
}

// Close releases the underlying file handle(s).
func (r *CompressedReader) Close() {
	if r.fp != nil {
		r.fp.Close()
	}
	if r.toClose != nil {
		r.toClose.Close()
	}
}

/* ------------------------------------------------------- *\
 *                  CAIDA RELATION FEED
\* ------------------------------------------------------- */

// CSVRelationFeed reads a CAIDA as-rel file:
//
//	<provider-as>|<customer-as>|-1
//	<peer-as>|<peer-as>|0
type CSVRelationFeed struct {
	Filename string
}

func (f CSVRelationFeed) Relations() ([]Relation, error) {
	r := NewCompressedReader(f.Filename)
	if err := r.Open(); err != nil {
		return nil, err
	}
	defer r.Close()

	var rows []Relation
	scanner := r.Scanner()
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			log.Print("[CSVRelationFeed]: malformed as-rel line, skipping: " + line)
			continue
		}
		a, err1 := strconv.ParseUint(parts[0], 10, 32)
		b, err2 := strconv.ParseUint(parts[1], 10, 32)
		if err1 != nil || err2 != nil {
			log.Print("[CSVRelationFeed]: non-numeric ASN, skipping: " + line)
			continue
		}
		switch parts[2] {
		case "0":
			rows = append(rows, Relation{ASN1: uint32(a), ASN2: uint32(b), Rel: announcement.Peer})
		case "-1":
			// provider|customer|-1: ASN2 is a customer of ASN1.
			rows = append(rows, Relation{ASN1: uint32(b), ASN2: uint32(a), Rel: announcement.Provider})
		default:
			log.Print("[CSVRelationFeed]: unknown relationship code, skipping: " + line)
		}
	}
	if err := scanner.Err(); err != nil {
		return rows, err
	}
	return rows, nil
}

/* ------------------------------------------------------- *\
 *               CSV ANNOUNCEMENT FEED
\* ------------------------------------------------------- */

// CSVAnnouncementFeed reads announcement rows from a CSV file:
//
//	prefix,as_path,origin,monitor_asn,timestamp,prefix_id,block_id
//
// as_path is a bracketed comma-separated decimal list, e.g. "[1,2,3]"
// (spec.md §6 staging file format), monitor-to-origin left to right.
type CSVAnnouncementFeed struct {
	Filename string

	loaded  bool
	byBlock map[uint32][]AnnouncementRow
	order   []uint32
}

func (f *CSVAnnouncementFeed) load() error {
	if f.loaded {
		return nil
	}
	r := NewCompressedReader(f.Filename)
	if err := r.Open(); err != nil {
		return err
	}
	defer r.Close()

	f.byBlock = make(map[uint32][]AnnouncementRow)
	scanner := r.Scanner()
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		row, err := parseAnnouncementLine(line)
		if err != nil {
			log.Print("[CSVAnnouncementFeed]: " + err.Error() + ": skipping row")
			continue
		}
		if _, seen := f.byBlock[row.BlockID]; !seen {
			f.order = append(f.order, row.BlockID)
		}
		f.byBlock[row.BlockID] = append(f.byBlock[row.BlockID], row)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	f.loaded = true
	return nil
}

func parseAnnouncementLine(line string) (AnnouncementRow, error) {
	// The as_path field is bracketed, so split around it rather than on
	// every comma.
	open := strings.Index(line, "[")
	close := strings.Index(line, "]")
	if open == -1 || close == -1 || close < open {
		return AnnouncementRow{}, fmt.Errorf("malformed as_path in line %q", line)
	}
	prefixField := strings.TrimSuffix(line[:open], ",")
	pathField := line[open+1 : close]
	tailFields := strings.Split(strings.TrimPrefix(line[close+1:], ","), ",")
	if len(tailFields) < 4 {
		return AnnouncementRow{}, fmt.Errorf("missing fields after as_path in line %q", line)
	}

	p, err := bgpprefix.New(prefixField)
	if err != nil {
		return AnnouncementRow{}, fmt.Errorf("bad prefix %q: %w", prefixField, err)
	}

	path, err := parseASPath(pathField)
	if err != nil {
		return AnnouncementRow{}, err
	}
	if len(path) == 0 {
		return AnnouncementRow{}, fmt.Errorf("empty as_path in line %q", line)
	}

	origin, err := strconv.ParseUint(strings.TrimSpace(tailFields[0]), 10, 32)
	if err != nil {
		return AnnouncementRow{}, fmt.Errorf("non-numeric origin in line %q", line)
	}
	if uint32(origin) != path[len(path)-1] {
		return AnnouncementRow{}, fmt.Errorf("origin %d inconsistent with path tail in line %q", origin, line)
	}
	monitor, err := strconv.ParseUint(strings.TrimSpace(tailFields[1]), 10, 32)
	if err != nil {
		return AnnouncementRow{}, fmt.Errorf("non-numeric monitor_asn in line %q", line)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(tailFields[2]), 10, 64)
	if err != nil {
		return AnnouncementRow{}, fmt.Errorf("non-numeric timestamp in line %q", line)
	}
	prefixID, err := strconv.ParseUint(strings.TrimSpace(tailFields[3]), 10, 32)
	if err != nil {
		return AnnouncementRow{}, fmt.Errorf("non-numeric prefix_id in line %q", line)
	}
	var blockID uint64
	if len(tailFields) >= 5 {
		blockID, err = strconv.ParseUint(strings.TrimSpace(tailFields[4]), 10, 32)
		if err != nil {
			return AnnouncementRow{}, fmt.Errorf("non-numeric block_id in line %q", line)
		}
	}

	return AnnouncementRow{
		Prefix:     p.WithID(uint32(prefixID)),
		ASPath:     path,
		Origin:     uint32(origin),
		MonitorASN: uint32(monitor),
		Timestamp:  ts,
		PrefixID:   uint32(prefixID),
		BlockID:    uint32(blockID),
	}, nil
}

func parseASPath(field string) ([]uint32, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}
	parts := strings.Split(field, ",")
	path := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("non-numeric as_path element %q", p)
		}
		path = append(path, uint32(v))
	}
	return path, nil
}

func (f *CSVAnnouncementFeed) BlockIDs() ([]uint32, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	return append([]uint32(nil), f.order...), nil
}

func (f *CSVAnnouncementFeed) Block(blockID uint32) ([]AnnouncementRow, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	return f.byBlock[blockID], nil
}

/* ------------------------------------------------------- *\
 *                      CSV RESULT SINK
\* ------------------------------------------------------- */

// CSVResultSink appends result rows directly to flat files, no
// staging/bulk-load step (that is sqlite.go's concern). Intended for
// small runs and for eyeballing output during development, the way
// the teacher's SafeSet.write_to_file dumps a diagnostic set.
type CSVResultSink struct {
	BestFile, DeprefFile, SupernodeFile string
	FullPath                           bool

	best, depref, supernode *os.File
}

func (s *CSVResultSink) ensureOpen(f **os.File, name string) (*os.File, error) {
	if *f != nil {
		return *f, nil
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("[CSVResultSink]: %w", err)
	}
	*f = file
	return file, nil
}

func (s *CSVResultSink) writeRows(f *os.File, rows []ResultRow) error {
	w := bufio.NewWriter(f)
	for _, row := range rows {
		line := fmt.Sprintf("%d,%s,%d,%d,%d,%d", row.ASN, row.Prefix.String(), row.Origin, row.ReceivedFromASN, row.Timestamp, row.PrefixID)
		if s.FullPath {
			line += "," + formatASPath(row.ASPath)
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func formatASPath(path []uint32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, asn := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(asn), 10))
	}
	b.WriteByte(']')
	return b.String()
}

func (s *CSVResultSink) WriteBest(rows []ResultRow) error {
	f, err := s.ensureOpen(&s.best, s.BestFile)
	if err != nil {
		return err
	}
	return s.writeRows(f, rows)
}

func (s *CSVResultSink) WriteDeprefered(rows []ResultRow) error {
	f, err := s.ensureOpen(&s.depref, s.DeprefFile)
	if err != nil {
		return err
	}
	return s.writeRows(f, rows)
}

func (s *CSVResultSink) WriteSupernodes(rows []SupernodeRow) error {
	f, err := s.ensureOpen(&s.supernode, s.SupernodeFile)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%d,%d\n", row.MemberASN, row.SupernodeASN); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (s *CSVResultSink) Close() error {
	for _, f := range []*os.File{s.best, s.depref, s.supernode} {
		if f != nil {
			f.Close()
		}
	}
	return nil
}
