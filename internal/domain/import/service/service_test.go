package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
	"github.com/FACorreiaa/echo-import/internal/domain/import/validator"
	"github.com/FACorreiaa/echo-import/pkg/metrics"
	"github.com/FACorreiaa/echo-import/pkg/storage"
)

const owner = "7d0c3a52-6a9e-4b8e-9d7c-1f2e3a4b5c6d"

// Six data rows: three new, one in-file repeat, two malformed.
const statement = `Data;Descrição;Valor;Categoria
31/01/2026;Pingo Doce Lisboa;-12,50;Groceries
01/02/2026;Salário;1.234,56;
02/02/2026;COMPRA NETFLIX 1234;15,99;subscr
;Missing date;1,00;
03/02/2026;Bad amount;abc;
31/01/2026;pingo doce lisboa ;-12,50;
`

func newTestService(store *memoryStore) *ImportService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewImportService(store, logger)
}

func csvFile(name, content string) upload.File {
	return upload.File{Name: name, ContentType: "text/csv", Size: int64(len(content)), Data: []byte(content)}
}

func TestPreview(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store).WithOptions(Options{PreviewRows: 2})

	result, err := svc.Preview(context.Background(), owner, csvFile("extrato.csv", statement))
	require.NoError(t, err)

	assert.Equal(t, []string{"Data", "Descrição", "Valor", "Categoria"}, result.Headers)
	assert.Equal(t, "Data", result.Suggested.Date)
	assert.Equal(t, "Descrição", result.Suggested.Description)
	assert.Equal(t, "Valor", result.Suggested.Amount)
	assert.Equal(t, "Categoria", result.Suggested.Category)
	assert.True(t, result.MappingComplete)
	assert.Equal(t, 6, result.RowCount)
	assert.Equal(t, upload.FormatCSV, result.Format)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"31/01/2026", "Pingo Doce Lisboa", "-12,50", "Groceries"}, result.Rows[0])
	assert.Equal(t, []string{"01/02/2026", "Salário", "1.234,56", ""}, result.Rows[1])

	assert.Empty(t, store.allLogs(), "preview never writes")
}

func TestPreview_IncompleteMapping(t *testing.T) {
	svc := newTestService(newMemoryStore())

	result, err := svc.Preview(context.Background(), owner, csvFile("extrato.csv", "Data;Texto;Valor\n31/01/2026;Café;-1,20\n"))
	require.NoError(t, err)
	assert.Equal(t, "Data", result.Suggested.Date)
	assert.Empty(t, result.Suggested.Description)
	assert.False(t, result.MappingComplete)
}

func TestPreview_RejectsBeforeParsing(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.Preview(context.Background(), owner, csvFile("extrato.pdf", statement))
	assert.ErrorIs(t, err, validator.ErrUnsupportedFormat)

	_, err = svc.Preview(context.Background(), owner, csvFile("empty.csv", "Data;Valor\n"))
	assert.ErrorIs(t, err, parser.ErrEmptyFile)
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	groceries := repository.Category{ID: uuid.New(), Name: "Groceries"}
	subscriptions := repository.Category{ID: uuid.New(), Name: "Subscriptions"}
	store.categories[owner] = []repository.Category{groceries, subscriptions}

	svc := newTestService(store)
	account := uuid.New()
	fallback := uuid.New()

	result, err := svc.Commit(ctx, owner, CommitRequest{
		File:              csvFile("extrato.csv", statement),
		AccountID:         account,
		DefaultCategoryID: &fallback,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalRows)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Dropped)
	assert.Equal(t, result.TotalRows, result.Imported+result.Skipped+result.Dropped)
	assert.Equal(t, map[normalizer.DropReason]int{
		normalizer.DropMissingField:  1,
		normalizer.DropInvalidAmount: 1,
	}, result.DroppedBy)
	assert.Equal(t, "Categoria", result.Mapping.Category)

	log, err := svc.GetLog(ctx, owner, result.LogID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusCompleted, log.Status)
	assert.Equal(t, 6, log.TotalRows)
	assert.Equal(t, 3, log.ImportedCount)
	assert.Equal(t, 1, log.SkippedCount)
	assert.Nil(t, log.ErrorMessage)

	txs := store.transactions(owner)
	require.Len(t, txs, 3)

	pingo, salary, netflix := txs[0], txs[1], txs[2]

	assert.Equal(t, time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC), pingo.PostedAt)
	assert.Equal(t, "Pingo Doce Lisboa", pingo.Description)
	assert.Equal(t, "Pingo Doce", pingo.MerchantName)
	assert.Equal(t, int64(1250), pingo.AmountMinor)
	assert.Equal(t, repository.KindIncome, pingo.Kind)
	assert.Equal(t, groceries.ID, *pingo.CategoryID)
	assert.Equal(t, account, pingo.AccountID)
	assert.Equal(t, result.LogID, pingo.ImportLogID)
	assert.Equal(t, "EUR", pingo.CurrencyCode)

	assert.Equal(t, int64(123456), salary.AmountMinor)
	assert.Equal(t, repository.KindExpense, salary.Kind)
	assert.Equal(t, fallback, *salary.CategoryID)

	assert.Equal(t, "Netflix", netflix.MerchantName)
	assert.Equal(t, subscriptions.ID, *netflix.CategoryID, "fuzzy category match")
}

func TestCommit_ReimportSkipsEverything(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestService(store)
	req := CommitRequest{File: csvFile("extrato.csv", statement), AccountID: uuid.New()}

	first, err := svc.Commit(ctx, owner, req)
	require.NoError(t, err)
	parsedOK := first.Imported + first.Skipped

	second, err := svc.Commit(ctx, owner, req)
	require.NoError(t, err)
	assert.Zero(t, second.Imported)
	assert.Equal(t, parsedOK, second.Skipped)
	assert.Equal(t, first.Dropped, second.Dropped)
	assert.NotEqual(t, first.LogID, second.LogID)
	assert.Len(t, store.transactions(owner), 3)

	t.Run("another owner imports the same rows", func(t *testing.T) {
		other, err := svc.Commit(ctx, "other-owner", req)
		require.NoError(t, err)
		assert.Equal(t, 3, other.Imported)
	})
}

type statementLine struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
}

func TestCommit_RowAccountingHolds(t *testing.T) {
	faker := gofakeit.New(7)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	lines := make([]statementLine, 0, 60)
	for i := range 60 {
		line := statementLine{
			Date:        faker.DateRange(start, start.AddDate(1, 0, 0)).Format("2006-01-02"),
			Description: faker.Company(),
			Amount:      fmt.Sprintf("%.2f", faker.Price(1, 500)),
		}
		switch i % 10 {
		case 3:
			line.Date = "not a date"
		case 7:
			line.Amount = ""
		}
		lines = append(lines, line)
	}
	data, err := gocsv.MarshalBytes(&lines)
	require.NoError(t, err)

	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestService(store)
	req := CommitRequest{File: csvFile("statement.csv", string(data)), AccountID: uuid.New()}

	first, err := svc.Commit(ctx, owner, req)
	require.NoError(t, err)
	assert.Equal(t, 60, first.TotalRows)
	assert.Equal(t, 12, first.Dropped)
	assert.Equal(t, 60, first.Imported+first.Skipped+first.Dropped)

	second, err := svc.Commit(ctx, owner, req)
	require.NoError(t, err)
	assert.Zero(t, second.Imported)
	assert.Equal(t, first.Imported+first.Skipped, second.Skipped)
}

func TestCommit_OversizeFileCreatesNoLog(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store).WithOptions(Options{MaxFileBytes: 64})

	_, err := svc.Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	assert.ErrorIs(t, err, validator.ErrFileTooLarge)
	assert.Empty(t, store.allLogs())

	t.Run("declared size counts too", func(t *testing.T) {
		f := csvFile("extrato.csv", statement)
		f.Size = validator.DefaultMaxBytes + 1
		_, err := newTestService(store).Commit(context.Background(), owner, CommitRequest{File: f, AccountID: uuid.New()})
		assert.ErrorIs(t, err, validator.ErrFileTooLarge)
		assert.Empty(t, store.allLogs())
	})
}

func TestCommit_RejectionsCreateNoLog(t *testing.T) {
	account := uuid.New()
	tests := []struct {
		name    string
		owner   string
		req     CommitRequest
		wantErr error
	}{
		{
			name:    "unsupported format",
			owner:   owner,
			req:     CommitRequest{File: csvFile("extrato.ofx", statement), AccountID: account},
			wantErr: validator.ErrUnsupportedFormat,
		},
		{
			name:    "unreadable file",
			owner:   owner,
			req:     CommitRequest{File: csvFile("extrato.xlsx", statement), AccountID: account},
			wantErr: parser.ErrUnreadableFile,
		},
		{
			name:    "header only",
			owner:   owner,
			req:     CommitRequest{File: csvFile("extrato.csv", "Data;Descrição;Valor\n"), AccountID: account},
			wantErr: parser.ErrEmptyFile,
		},
		{
			name:  "unknown mapped column",
			owner: owner,
			req: CommitRequest{
				File:      csvFile("extrato.csv", statement),
				AccountID: account,
				Mapping:   normalizer.Mapping{Amount: "Montante"},
			},
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "no amount column",
			owner:   owner,
			req:     CommitRequest{File: csvFile("extrato.csv", "Data;Descrição;Saldo\n01/01/2026;x;1\n"), AccountID: account},
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "missing account",
			owner:   owner,
			req:     CommitRequest{File: csvFile("extrato.csv", statement)},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "missing owner",
			req:     CommitRequest{File: csvFile("extrato.csv", statement), AccountID: account},
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			_, err := newTestService(store).Commit(context.Background(), tt.owner, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.allLogs())
		})
	}
}

func TestCommit_PersistenceFailureMarksLogFailed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*memoryStore)
	}{
		{"insert fails", func(m *memoryStore) { m.failInsert = errors.New("deadlock detected") }},
		{"fingerprint lookup fails", func(m *memoryStore) { m.failFind = errors.New("connection reset") }},
		{"log completion fails", func(m *memoryStore) { m.failComplete = errors.New("server closed the connection") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			tt.setup(store)
			svc := newTestService(store)

			_, err := svc.Commit(context.Background(), owner, CommitRequest{
				File:      csvFile("extrato.csv", statement),
				AccountID: uuid.New(),
			})
			require.ErrorIs(t, err, ErrPersistence)

			logs := store.allLogs()
			require.Len(t, logs, 1)
			assert.Equal(t, repository.StatusFailed, logs[0].Status)
			require.NotNil(t, logs[0].ErrorMessage)
			assert.NotEmpty(t, *logs[0].ErrorMessage)
			assert.Equal(t, 6, logs[0].TotalRows)
			assert.Empty(t, store.transactions(owner))
		})
	}
}

func TestCommit_CancelledDuringInsertStillRecordsFailure(t *testing.T) {
	store := newMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.beforeInsert = cancel

	_, err := newTestService(store).Commit(ctx, owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, ErrPersistence)

	logs := store.allLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, repository.StatusFailed, logs[0].Status)
	assert.Contains(t, *logs[0].ErrorMessage, "context canceled")
}

func TestCommit_CancelledAfterRowsStagedLeavesNoRows(t *testing.T) {
	store := newMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.afterInsert = cancel

	_, err := newTestService(store).Commit(ctx, owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, ErrPersistence)

	logs := store.allLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, repository.StatusFailed, logs[0].Status)
	assert.Empty(t, store.transactions(owner))

	t.Run("nothing is left for the reaper", func(t *testing.T) {
		reaped, err := store.FailStaleLogs(context.Background(), time.Now().Add(time.Minute), "import interrupted")
		require.NoError(t, err)
		assert.Zero(t, reaped)
		assert.Contains(t, *store.allLogs()[0].ErrorMessage, "context canceled")
	})
}

func TestCommit_CompletedImportIsFinal(t *testing.T) {
	store := newMemoryStore()

	result, err := newTestService(store).Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.NoError(t, err)

	reaped, err := store.FailStaleLogs(context.Background(), time.Now().Add(time.Minute), "import interrupted")
	require.NoError(t, err)
	assert.Zero(t, reaped)

	log, err := store.GetLog(context.Background(), owner, result.LogID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusCompleted, log.Status)
	assert.Equal(t, result.Imported, log.ImportedCount)
	assert.Equal(t, result.Skipped, log.SkippedCount)
	assert.Len(t, store.transactions(owner), result.Imported)
}

func TestCommit_LogCreationFailure(t *testing.T) {
	store := newMemoryStore()
	store.failCreateLog = errors.New("too many connections")

	_, err := newTestService(store).Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, store.transactions(owner))
}

func TestCommit_ConcurrentInsertCountsAsSkipped(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	// Another import stores the salary row between the dedup check and the insert.
	salary, _, ok := normalizer.New(normalizer.NegativeIsIncome).NormalizeRow(
		parser.RawRow{
			"Data":      parser.TextCell("01/02/2026"),
			"Descrição": parser.TextCell("Salário"),
			"Valor":     parser.TextCell("1.234,56"),
		},
		normalizer.Mapping{Date: "Data", Description: "Descrição", Amount: "Valor"},
	)
	require.True(t, ok)
	store.beforeInsert = func() { store.insert(owner, salary.Fingerprint) }

	result, err := svc.Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 6, result.Imported+result.Skipped+result.Dropped)
}

func TestCommit_SignConvention(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store).WithOptions(Options{SignConvention: normalizer.NegativeIsExpense})

	_, err := svc.Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.NoError(t, err)

	txs := store.transactions(owner)
	require.Len(t, txs, 3)
	assert.Equal(t, repository.KindExpense, txs[0].Kind)
	assert.Equal(t, repository.KindIncome, txs[1].Kind)
}

func TestCommit_ArchivesUpload(t *testing.T) {
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	store := newMemoryStore()
	svc := newTestService(store).WithStorage(archive)

	result, err := svc.Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.NoError(t, err)

	log, err := svc.GetLog(context.Background(), owner, result.LogID)
	require.NoError(t, err)
	require.NotNil(t, log.ArchiveURI)

	rc, err := archive.Open(context.Background(), *log.ArchiveURI)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, statement, string(data))
}

func TestCommit_RecordsMetrics(t *testing.T) {
	m := metrics.NewImportMetrics(prometheus.NewRegistry())
	store := newMemoryStore()
	svc := newTestService(store).WithMetrics(m)

	_, err := svc.Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.NoError(t, err)

	store.failInsert = errors.New("boom")
	_, err = svc.Commit(context.Background(), "second-owner", CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commits.WithLabelValues("COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commits.WithLabelValues("FAILED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Rows.WithLabelValues("imported")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Rows.WithLabelValues("dropped")))
}

func TestListLogs(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	req := CommitRequest{File: csvFile("extrato.csv", statement), AccountID: uuid.New()}

	_, err := svc.Commit(context.Background(), owner, req)
	require.NoError(t, err)

	logs, err := svc.ListLogs(context.Background(), owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "extrato.csv", logs[0].FileName)

	_, err = svc.ListLogs(context.Background(), "", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestResolveMapping(t *testing.T) {
	table := &parser.RawTable{Headers: []string{"Date", "Memo", "Amount", "Category"}}

	t.Run("inference fills the gaps", func(t *testing.T) {
		m, err := ResolveMapping(table, normalizer.Mapping{Description: "Memo"})
		require.NoError(t, err)
		assert.Equal(t, normalizer.Mapping{Date: "Date", Description: "Memo", Amount: "Amount", Category: "Category"}, m)
	})

	t.Run("explicit mapping wins", func(t *testing.T) {
		m, err := ResolveMapping(table, normalizer.Mapping{Date: "Date", Description: "Category", Amount: "Amount"})
		require.NoError(t, err)
		assert.Equal(t, "Category", m.Description)
		assert.Empty(t, m.Category, "inferred category collides with description")
	})

	t.Run("duplicate required columns", func(t *testing.T) {
		_, err := ResolveMapping(table, normalizer.Mapping{Date: "Date", Description: "Date", Amount: "Amount"})
		assert.ErrorIs(t, err, ErrInvalidMapping)
	})

	t.Run("explicit category collision", func(t *testing.T) {
		_, err := ResolveMapping(table, normalizer.Mapping{Category: "Amount"})
		assert.ErrorIs(t, err, ErrInvalidMapping)
	})

	t.Run("unknown header", func(t *testing.T) {
		_, err := ResolveMapping(table, normalizer.Mapping{Category: "Tags"})
		assert.True(t, strings.Contains(err.Error(), "Tags"))
	})
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestImportService_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := newMemoryStore()
	svc := newTestService(store).WithTracer(tp.Tracer(TracerName))
	ctx := context.Background()

	_, err := svc.Preview(ctx, owner, csvFile("extrato.csv", statement))
	require.NoError(t, err)
	result, err := svc.Commit(ctx, owner, CommitRequest{File: csvFile("extrato.csv", statement), AccountID: uuid.New()})
	require.NoError(t, err)

	store.failInsert = errors.New("deadlock detected")
	_, err = svc.Commit(ctx, owner, CommitRequest{File: csvFile("extrato.csv", statement), AccountID: uuid.New()})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	t.Run("preview", func(t *testing.T) {
		assert.Equal(t, "import.Preview", spans[0].Name())
		assert.Equal(t, int64(6), spanAttr(spans[0], "import.rows").AsInt64())
	})

	t.Run("completed commit", func(t *testing.T) {
		assert.Equal(t, "import.Commit", spans[1].Name())
		assert.Equal(t, codes.Unset, spans[1].Status().Code)
		assert.Equal(t, int64(result.Imported), spanAttr(spans[1], "import.imported").AsInt64())
		assert.Equal(t, int64(result.Dropped), spanAttr(spans[1], "import.dropped").AsInt64())
	})

	t.Run("failed commit", func(t *testing.T) {
		assert.Equal(t, codes.Error, spans[2].Status().Code)
		assert.Contains(t, spans[2].Status().Description, "deadlock detected")
		require.NotEmpty(t, spans[2].Events())
		assert.Equal(t, "exception", spans[2].Events()[0].Name)
	})
}

func TestCommit_CustomMerchantNames(t *testing.T) {
	namer := normalizer.NewMerchantNamer()
	require.NoError(t, namer.AddBrand(`SAL[AÁ]RIO`, "Employer"))

	store := newMemoryStore()
	_, err := newTestService(store).WithMerchantNamer(namer).Commit(context.Background(), owner, CommitRequest{
		File:      csvFile("extrato.csv", statement),
		AccountID: uuid.New(),
	})
	require.NoError(t, err)

	names := make(map[string]string)
	for _, tx := range store.transactions(owner) {
		names[tx.Description] = tx.MerchantName
	}
	assert.Equal(t, "Employer", names["Salário"])
	assert.Equal(t, "Pingo Doce", names["Pingo Doce Lisboa"])
}
