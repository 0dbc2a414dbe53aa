package universe

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
)

//go:embed data/sp500.csv
var sp500CSV []byte

// Member is one constituent of the reference universe (GICS sector)
type Member struct {
	Symbol string `csv:"symbol" json:"symbol"`
	Name   string `csv:"name" json:"name"`
	Sector string `csv:"sector" json:"sector"`
}

// Universe is an immutable, sector-indexed list of members
// ⭐ SSOT: 종목 유니버스 조회는 여기서만 (네트워크 호출 없음)
type Universe struct {
	members  []Member
	bySector map[string][]Member // GICS name → members, in file order
}

// Default returns the embedded S&P 500 universe
func Default() (*Universe, error) {
	return Parse(sp500CSV)
}

// Load reads a universe CSV (symbol,name,sector); an empty path means the embedded list
func Load(path string) (*Universe, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Universe from CSV bytes
func Parse(data []byte) (*Universe, error) {
	var members []Member
	if err := gocsv.UnmarshalBytes(data, &members); err != nil {
		return nil, fmt.Errorf("parse universe csv: %w", err)
	}
	return New(members)
}

// New indexes members by sector. Blank symbols are an error.
func New(members []Member) (*Universe, error) {
	u := &Universe{
		members:  make([]Member, 0, len(members)),
		bySector: make(map[string][]Member),
	}

	for i, m := range members {
		m.Symbol = strings.TrimSpace(m.Symbol)
		m.Name = strings.TrimSpace(m.Name)
		m.Sector = strings.TrimSpace(m.Sector)
		if m.Symbol == "" {
			return nil, fmt.Errorf("universe row %d: empty symbol", i+1)
		}
		u.members = append(u.members, m)
		u.bySector[m.Sector] = append(u.bySector[m.Sector], m)
	}

	return u, nil
}

// SymbolsInSector returns the members of an FMP-named sector
func (u *Universe) SymbolsInSector(fmpSector string) []Member {
	members := u.bySector[ToGICS(fmpSector)]
	out := make([]Member, len(members))
	copy(out, members)
	return out
}

// Sectors returns the distinct GICS sector names, sorted
func (u *Universe) Sectors() []string {
	names := make([]string, 0, len(u.bySector))
	for name := range u.bySector {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of members
func (u *Universe) Len() int {
	return len(u.members)
}

// Members returns a copy of all members in file order
func (u *Universe) Members() []Member {
	out := make([]Member, len(u.members))
	copy(out, u.members)
	return out
}

// WriteCSV writes members in the embedded file's format.
// The file is replaced atomically; a failed write leaves the previous file intact.
func WriteCSV(path string, members []Member) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create universe dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create universe file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod universe file: %w", err)
	}
	if err := gocsv.MarshalFile(&members, f); err != nil {
		return fmt.Errorf("write universe csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close universe file: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("replace universe file: %w", err)
	}
	return nil
}
