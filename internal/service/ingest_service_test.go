package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

const rosterCSV = `student_id,attendance_percentage,fee_status,subject,test_score,test_number
S1,60,paid,Math,40,1
S1,60,paid,Math,50,2
S1,60,paid,Math,99,2
S2,95,Overdue,Science,88,1
`

func TestIngestCSV(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.ingest.Ingest(ctx, "admin", "roster.csv", strings.NewReader(rosterCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, []string{"S1", "S2"}, res.IDs)

	detail, err := env.students.Detail(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, model.FeePaid, detail.Info.FeeStatus)
	assert.Equal(t, 45.0, detail.Info.AvgTestScore, "duplicate test keeps the first score")

	res, err = env.ingest.Ingest(ctx, "admin", "roster.csv", strings.NewReader(rosterCSV))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}

func TestIngestColumnOrderAndUnknownFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := "test_number,subject,test_score,fee_status,attendance_percentage,student_id\n1,Art,70,late,82.5,A9\n"

	res, err := env.ingest.Ingest(ctx, "admin", "roster.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	detail, err := env.students.Detail(ctx, "A9")
	require.NoError(t, err)
	assert.Equal(t, model.FeeUnknown, detail.Info.FeeStatus)
	assert.Equal(t, 82.5, detail.Info.AttendancePercentage)
}

func TestIngestErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		data     string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing column",
			filename: "roster.csv",
			data:     "student_id,attendance_percentage\nS1,60\n",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMissingColumns) },
		},
		{
			name:     "empty file",
			filename: "roster.csv",
			data:     "",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMissingColumns) },
		},
		{
			name:     "bad score",
			filename: "roster.csv",
			data:     "student_id,attendance_percentage,fee_status,subject,test_score,test_number\nS1,60,Paid,Math,abc,1\n",
			check: func(t *testing.T, err error) {
				var rowErr *RowError
				require.ErrorAs(t, err, &rowErr)
				assert.Equal(t, 2, rowErr.Row)
				assert.Equal(t, "test_score", rowErr.Column)
			},
		},
		{
			name:     "unsupported extension",
			filename: "roster.pdf",
			data:     "x",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnsupportedFile) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ingest.Ingest(ctx, "admin", tt.filename, strings.NewReader(tt.data))
			tt.check(t, err)
		})
	}
}

func TestIngestRejectsBadMeasures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const header = "student_id,attendance_percentage,fee_status,subject,test_score,test_number\n"

	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"NaN attendance", "N1,NaN,Paid,Math,70,1", "attendance_percentage"},
		{"infinite attendance", "N1,+Inf,Paid,Math,70,1", "attendance_percentage"},
		{"negative attendance", "N2,-40,Paid,Math,70,1", "attendance_percentage"},
		{"attendance over 100", "N2,150,Paid,Math,70,1", "attendance_percentage"},
		{"NaN score", "N3,80,Paid,Math,NaN,1", "test_score"},
		{"infinite score", "N3,80,Paid,Math,Inf,1", "test_score"},
		{"negative score", "N3,80,Paid,Math,-5,1", "test_score"},
		{"reserved id", "me,80,Paid,Math,70,1", "student_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ingest.Ingest(ctx, "admin", "roster.csv", strings.NewReader(header+tt.row+"\n"))
			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, 2, rowErr.Row)
			assert.Equal(t, tt.column, rowErr.Column)
		})
	}

	roster, err := env.students.List(ctx, "", model.FilterAll)
	require.NoError(t, err)
	for _, s := range roster {
		assert.NotContains(t, []string{"N1", "N2", "N3", "me"}, s.StudentID)
	}
}

func TestIngestAcceptsBoundaryAttendance(t *testing.T) {
	env := newTestEnv(t)
	data := "student_id,attendance_percentage,fee_status,subject,test_score,test_number\nB0,0,Paid,Math,0,1\nB1,100,Paid,Math,100,1\n"

	res, err := env.ingest.Ingest(context.Background(), "admin", "roster.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
}

func TestIngestXLSX(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"student_id", "attendance_percentage", "fee_status", "subject", "test_score", "test_number"},
		{"S7", 72, "Paid", "Math", 55, 1},
		{"S7", 72, "Paid", "Physics", 65, 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := env.ingest.Ingest(ctx, "admin", "ROSTER.XLSX", &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	subjects, err := env.students.SubjectScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.SubjectScore{{Subject: "Math", TestScore: 55}, {Subject: "Physics", TestScore: 65}}, subjects)
}
