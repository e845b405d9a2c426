package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"ledger.csv", FormatCSV, false},
		{"LEDGER.CSV", FormatCSV, false},
		{"vendas.xlsx", FormatXLSX, false},
		{"vendas.xls", "", true},
		{"notes.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, Supported(tt.name))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCSV(t *testing.T) {
	data := "ID_cliente,DiaCompra,CodigoCompra,ValorTotal\n" +
		"C1,2024-01-01,X1,100\n" +
		"C1,2024-01-10,X2,50.25\n" +
		"C2,2024-01-10 13:45:00,X3,500\n"

	txs, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, contracts.Transaction{
		CustomerID:   "C1",
		PurchaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PurchaseCode: "X1",
		TotalValue:   100,
	}, txs[0])
	assert.Equal(t, 50.25, txs[1].TotalValue)
	assert.Equal(t, time.Date(2024, 1, 10, 13, 45, 0, 0, time.UTC), txs[2].PurchaseDate)
}

func TestReadCSV_ColumnOrderAndExtras(t *testing.T) {
	data := "\xEF\xBB\xBFValorTotal;Loja;CodigoCompra;ID_cliente;DiaCompra\n" +
		"12,50;Centro;P1;7;05/02/2024\n" +
		"\n" +
		"3;Norte;P2;8;2024-02-06\n"

	txs, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "7", txs[0].CustomerID)
	assert.Equal(t, 12.5, txs[0].TotalValue)
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), txs[0].PurchaseDate)
	assert.Equal(t, "P2", txs[1].PurchaseCode)
}

func TestReadCSV_MissingFields(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("ID_cliente,DiaCompra,Valor\nC1,2024-01-01,10\n"))

	var mErr *contracts.MissingFieldError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, []string{"CodigoCompra", "ValorTotal"}, mErr.Missing)
	assert.Equal(t, []string{"ID_cliente", "DiaCompra", "Valor"}, mErr.Found)
}

func TestReadCSV_EmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))

	var mErr *contracts.MissingFieldError
	require.ErrorAs(t, err, &mErr)
	assert.Len(t, mErr.Missing, 4)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	txs, err := ReadCSV(strings.NewReader("ID_cliente,DiaCompra,CodigoCompra,ValorTotal\n"))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestReadCSV_RowErrors(t *testing.T) {
	header := "ID_cliente,DiaCompra,CodigoCompra,ValorTotal\n"

	t.Run("bad date", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "C1,2024-01-01,X1,1\nC2,yesterday,X2,2\n"))

		var dErr *contracts.DateParseError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, 2, dErr.Row)
		assert.Equal(t, "yesterday", dErr.Value)
	})

	t.Run("serial date rejected in csv", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "C1,45292,X1,1\n"))

		var dErr *contracts.DateParseError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, 1, dErr.Row)
	})

	t.Run("non numeric value", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "C1,2024-01-01,X1,abc\n"))

		var vErr *contracts.InvalidValueError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, contracts.FieldTotalValue, vErr.Field)
		assert.Equal(t, 1, vErr.Row)
	})

	t.Run("negative value", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "C1,2024-01-01,X1,-5\n"))

		var vErr *contracts.InvalidValueError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "-5", vErr.Value)
	})

	t.Run("blank customer", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "C1,2024-01-01,X1,1\n,,,\n ,2024-01-01,X2,1\n"))

		var vErr *contracts.InvalidValueError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, contracts.FieldCustomerID, vErr.Field)
		assert.Equal(t, 3, vErr.Row)
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		serial bool
		want   time.Time
	}{
		{"2024-03-15", false, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{" 2024-03-15 ", false, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15 08:30:00", false, time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)},
		{"2024-03-15T08:30:00Z", false, time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)},
		{"2024-03-15T08:30:00-03:00", false, time.Date(2024, 3, 15, 11, 30, 0, 0, time.UTC)},
		{"15/03/2024", false, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"45292", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in, tt.serial)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	for _, bad := range []string{"", "2024-13-01", "31/31/2024", "soon"} {
		_, err := ParseDate(bad, true)
		assert.Error(t, err, bad)
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("1234.5")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	v, err = ParseValue("0,99")
	require.NoError(t, err)
	assert.Equal(t, 0.99, v)

	v, err = ParseValue("0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	for _, bad := range []string{"", "NaN", "Inf", "-1", "1,000.50x"} {
		_, err := ParseValue(bad)
		assert.Error(t, err, bad)
	}
}

func xlsxLedger(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, axis, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	data := xlsxLedger(t, [][]interface{}{
		{"ID_cliente", "DiaCompra", "CodigoCompra", "ValorTotal", "Obs"},
		{"C1", 45292, "X1", 100.5, "serial date"},
		{"C2", "2024-01-05", "X2", 20, ""},
	})

	txs, err := Read("vendas.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "C1", txs[0].CustomerID)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(txs[0].PurchaseDate))
	assert.Equal(t, 100.5, txs[0].TotalValue)
	assert.True(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC).Equal(txs[1].PurchaseDate))
}

func TestReadXLSX_MissingFields(t *testing.T) {
	data := xlsxLedger(t, [][]interface{}{
		{"cliente", "DiaCompra"},
		{"C1", "2024-01-05"},
	})

	_, err := Read("vendas.xlsx", bytes.NewReader(data))

	var mErr *contracts.MissingFieldError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, []string{"ID_cliente", "CodigoCompra", "ValorTotal"}, mErr.Missing)
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := Read("vendas.xlsx", strings.NewReader("ID_cliente,DiaCompra"))
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID_cliente,DiaCompra,CodigoCompra,ValorTotal\nC1,2024-01-01,X1,10\n"), 0o644))

	src := NewFileSource(path)
	assert.Equal(t, "ledger.csv", src.Name())

	txs, err := src.Transactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Transactions(context.Background())
	assert.Error(t, err)
}
