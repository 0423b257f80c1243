package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtor-extractor/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStoreWithDB(sqlx.NewDb(db, "postgres"), nil), mock
}

func sampleProfile() *models.AgentProfile {
	return &models.AgentProfile{
		AgentID:         "5f1a2b3c4d",
		SourceURL:       "https://www.realtor.com/realestateagents/5f1a2b3c4d/jane-doe",
		Name:            models.Str("Jane Doe"),
		Company:         models.Str("Hill Country Realty"),
		Phone:           models.Str("(512) 555-0142"),
		ExperienceYears: 12,
		Languages:       []string{"English", "Spanish"},
		Specializations: []string{},
		Certifications:  []string{},
		ServiceAreas:    []string{"Austin"},
		Properties: []models.Property{
			{PropertyID: "M1234-5678", Address: "123 Main St", Price: 450000, ListingStatus: "active", ImageURLs: []string{"https://ap.rdcpix.com/a-m1od.jpg"}},
			{PropertyID: "M9999-0001", Address: "9 Oak Ln", Price: 1200000, ListingStatus: "sold", ImageURLs: []string{}},
		},
		Recommendations: []models.Recommendation{
			{Text: "Jane made the whole process easy.", Author: "Sam K.", Date: "2024-03-04"},
		},
	}
}

func TestPostgresStore_CheckDuplicate(t *testing.T) {
	stored, _ := json.Marshal(sampleProfile())

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantDup   bool
		wantName  string
		wantErr   bool
	}{
		{
			name: "returns stored record",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT record FROM agents").
					WithArgs("https://x.test/agent").
					WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(stored))
			},
			wantDup:  true,
			wantName: "Jane Doe",
		},
		{
			name: "not found is not a duplicate",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT record FROM agents").WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "database failure is unavailable",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT record FROM agents").WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tc.setupMock(mock)

			got, err := store.CheckDuplicate(context.Background(), "https://x.test/agent")
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrUnavailable))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantDup, got.IsDuplicate)
			if tc.wantName != "" {
				require.NotNil(t, got.Existing)
				assert.Equal(t, tc.wantName, models.Deref(got.Existing.Name))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Submit(t *testing.T) {
	store, mock := newMockStore(t)
	p := sampleProfile()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO agents").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec("DELETE FROM agent_properties").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO agent_properties").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO agent_properties").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM agent_recommendations").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO agent_recommendations").
		WithArgs(int64(42), 0, p.Recommendations[0].Text, "Sam K.", "2024-03-04").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := store.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "42", res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SubmitRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO agents").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM agent_properties").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO agent_properties").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	res, err := store.Submit(context.Background(), sampleProfile())
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS agents").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
