package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homemoney/internal/core"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240118120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024011801
<NAME>PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseOFX(t *testing.T) {
	records, skipped, err := ParseOFX(strings.NewReader("\n\n"+sampleOFX), "")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []core.ExpenseRecord{
		{Type: "DEBIT", Remark: "STARBUCKS STORE #1234", Amount: 25.5, Time: "2024-01-15"},
		{Type: "CHECK", Remark: "CHECK #1234", Amount: 500, Time: "2024-01-25"},
	}, records)
}

func TestParseOFX_FixedType(t *testing.T) {
	records, _, err := ParseOFX(strings.NewReader(sampleOFX), "Bank")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "Bank", r.Type)
	}
}

func TestParseOFX_Invalid(t *testing.T) {
	_, _, err := ParseOFX(strings.NewReader("not an ofx file"), "")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "expenses.csv")
	csvBody := "\"类型\",\"备注\",\"金额\",\"日期\"\r\n\"Food\",\"lunch\",\"12.50\",\"2024-03-01\"\r\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvBody), 0o644))

	records, skipped, err := ReadFile(csvPath, "")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, []core.ExpenseRecord{{Type: "Food", Remark: "lunch", Amount: 12.5, Time: "2024-03-01"}}, records)

	ofxPath := filepath.Join(dir, "statement.QFX")
	require.NoError(t, os.WriteFile(ofxPath, []byte(sampleOFX), 0o644))
	records, _, err = ReadFile(ofxPath, "")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, _, err = ReadFile(filepath.Join(dir, "notes.txt"), "")
	assert.Error(t, err)

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, _, err = ReadFile(txtPath, "")
	assert.ErrorContains(t, err, "unsupported file type")
}

type recordingPoster struct {
	posted []core.ExpenseRecord
	failOn string
}

func (p *recordingPoster) AddExpense(ctx context.Context, rec core.ExpenseRecord) error {
	if rec.Type == p.failOn {
		return errors.New("server said no")
	}
	p.posted = append(p.posted, rec)
	return nil
}

func TestImport(t *testing.T) {
	records := []core.ExpenseRecord{
		{Type: "Food", Amount: 1, Time: "2024-03-01"},
		{Type: "Broken", Amount: 2, Time: "2024-03-01"},
		{Type: "Rent", Amount: 3, Time: "2024-03-01"},
	}
	poster := &recordingPoster{failOn: "Broken"}

	var out bytes.Buffer
	sum, err := Import(context.Background(), poster, records, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Read: 3, Posted: 2, Failed: 1}, sum)
	assert.Len(t, poster.posted, 2)
	assert.Contains(t, out.String(), "Importing expenses")
}

func TestImport_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poster := &recordingPoster{}
	sum, err := Import(ctx, poster, []core.ExpenseRecord{{Type: "Food", Amount: 1, Time: "2024-03-01"}}, io.Discard, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Posted)
	assert.Empty(t, poster.posted)
}
