package universe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
)

func TestSectorMap_Bidirectional(t *testing.T) {
	tests := []struct {
		gics string
		fmp  string
	}{
		{"Information Technology", "Technology"},
		{"Consumer Discretionary", "Consumer Cyclical"},
		{"Consumer Staples", "Consumer Defensive"},
		{"Financials", "Financial Services"},
		{"Health Care", "Healthcare"},
		{"Materials", "Basic Materials"},
		{"Energy", "Energy"},
	}

	for _, tt := range tests {
		t.Run(tt.gics, func(t *testing.T) {
			assert.Equal(t, tt.fmp, ToFMP(tt.gics))
			assert.Equal(t, tt.gics, ToGICS(tt.fmp))
		})
	}

	assert.Len(t, fmpToGICS, len(gicsToFMP), "mapping must be one-to-one")
	assert.Equal(t, "Crypto", ToGICS("Crypto"))
	assert.Equal(t, "Crypto", ToFMP("Crypto"))
}

func TestDefault(t *testing.T) {
	u, err := Default()
	require.NoError(t, err)

	assert.Greater(t, u.Len(), 490)
	assert.Len(t, u.Sectors(), 11)

	for _, gics := range u.Sectors() {
		_, known := gicsToFMP[gics]
		assert.True(t, known, "embedded sector %q has no FMP mapping", gics)
	}

	tech := u.SymbolsInSector("Technology")
	require.NotEmpty(t, tech)
	symbols := map[string]bool{}
	for _, m := range tech {
		symbols[m.Symbol] = true
		assert.Equal(t, "Information Technology", m.Sector)
	}
	assert.True(t, symbols["AAPL"])
	assert.True(t, symbols["MSFT"])

	assert.Empty(t, u.SymbolsInSector("Nonexistent"))
}

func TestParse(t *testing.T) {
	u, err := Parse([]byte("symbol,name,sector\nAAA,\"Alpha, Inc.\",Energy\nBBB,Beta,Energy\nCCC,Gamma,Utilities\n"))
	require.NoError(t, err)

	energy := u.SymbolsInSector("Energy")
	require.Len(t, energy, 2)
	assert.Equal(t, "Alpha, Inc.", energy[0].Name)
	assert.Equal(t, "BBB", energy[1].Symbol)

	// callers get a copy
	energy[0].Symbol = "ZZZ"
	assert.Equal(t, "AAA", u.SymbolsInSector("Energy")[0].Symbol)

	_, err = Parse([]byte("symbol,name,sector\n,Nameless,Energy\n"))
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.csv")
	in := []Member{
		{Symbol: "AAA", Name: "Alpha, Inc.", Sector: "Energy"},
		{Symbol: "BBB", Name: "Beta", Sector: "Health Care"},
	}
	require.NoError(t, WriteCSV(path, in))

	u, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, u.Members())
	assert.Len(t, u.SymbolsInSector("Healthcare"), 1)
}

func TestWriteCSV_CreatesMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sp500.csv")
	require.NoError(t, WriteCSV(path, []Member{{Symbol: "AAA", Name: "Alpha", Sector: "Energy"}}))

	u, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Len())
}

func TestWriteCSV_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "universe.csv")
	require.NoError(t, WriteCSV(path, []Member{{Symbol: "OLD", Name: "Old", Sector: "Energy"}}))
	require.NoError(t, WriteCSV(path, []Member{
		{Symbol: "AAA", Name: "Alpha", Sector: "Energy"},
		{Symbol: "BBB", Name: "Beta", Sector: "Utilities"},
	}))

	u, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Len())

	// 임시 파일이 남지 않아야 함
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteCSV_FailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "universe.csv")
	require.NoError(t, WriteCSV(path, []Member{{Symbol: "OLD", Name: "Old", Sector: "Energy"}}))

	// 대상 경로가 디렉터리면 rename이 실패
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.Mkdir(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "x"), []byte("x"), 0o644))
	assert.Error(t, WriteCSV(blocked, []Member{{Symbol: "NEW", Name: "New", Sector: "Energy"}}))

	u, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "OLD", u.Members()[0].Symbol)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp file must be removed")
}

type fakeLookup map[string][]Member

func (f fakeLookup) SymbolsInSector(s string) []Member { return f[s] }

func TestBuildCandidates(t *testing.T) {
	lookup := fakeLookup{
		"Technology": {{Symbol: "AAPL", Name: "Apple"}, {Symbol: "DUAL", Name: "Dual"}},
		"Energy":     {{Symbol: "XOM", Name: "Exxon"}, {Symbol: "DUAL", Name: "Dual"}},
	}

	got := BuildCandidates(lookup, []contracts.WinningSector{
		{Name: "Technology", Performance: 2.35},
		{Name: "Energy", Performance: 1.1},
		{Name: "Empty", Performance: 0.2},
	})

	require.Len(t, got, 4)
	assert.Equal(t, contracts.Candidate{Symbol: "AAPL", Name: "Apple", Sector: "Technology", SectorChangePct: 2.35}, got[0])
	// 섹터 간 중복 제거하지 않음
	assert.Equal(t, "DUAL", got[1].Symbol)
	assert.Equal(t, "DUAL", got[3].Symbol)
	assert.Equal(t, "Energy", got[3].Sector)
	assert.Equal(t, 1.1, got[3].SectorChangePct)
}

const constituentsHTML = `<html><body>
<table class="wikitable" id="constituents">
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th></tr>
<tr><td><a>MMM</a></td><td>3M</td><td>Industrials</td><td>Conglomerates</td></tr>
<tr><td>AAPL</td><td>Apple Inc.</td><td>Information Technology</td><td>Hardware</td></tr>
</table>
</body></html>`

func TestFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(constituentsHTML))
	}))
	defer server.Close()

	f := NewFetcher(httputil.New(logger.Nop()), logger.Nop()).WithURL(server.URL)
	members, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Member{
		{Symbol: "MMM", Name: "3M", Sector: "Industrials"},
		{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Information Technology"},
	}, members)
}

func TestFetcher_MissingTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table><tr><td>x</td></tr></table></body></html>`))
	}))
	defer server.Close()

	_, err := NewFetcher(httputil.New(logger.Nop()), logger.Nop()).WithURL(server.URL).Fetch(context.Background())
	assert.ErrorContains(t, err, "not found")
}
