package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"homemoney/internal/core"
)

var severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)

// preprocess fixes formatting that trips the strict parser.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	return severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
}

// ParseOFX converts the debits of every bank and credit card statement in
// r into expense records. Credits are skipped and counted.
func ParseOFX(r io.Reader, typ string) ([]core.ExpenseRecord, int, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read OFX file: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, 0, fmt.Errorf("parse OFX file: %w", err)
	}

	var txns []ofxgo.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			txns = append(txns, stmt.BankTranList.Transactions...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			txns = append(txns, stmt.BankTranList.Transactions...)
		}
	}

	records := make([]core.ExpenseRecord, 0, len(txns))
	skipped := 0
	for _, tx := range txns {
		amount, _ := tx.TrnAmt.Float64()
		if amount >= 0 {
			skipped++
			continue
		}
		t := typ
		if t == "" {
			t = tx.TrnType.String()
		}
		rec, err := core.NewExpenseRecord(t, payee(tx), -amount, tx.DtPosted.Time.Format(core.DateLayout))
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func payee(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if name == "" {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return name
}
