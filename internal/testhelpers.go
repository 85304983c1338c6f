package internal

import (
	"time"
)

// CreateTestProfile creates a small valid profile for tests
func CreateTestProfile(rows int) *Profile {
	return &Profile{
		RowCount:    rows,
		ColumnCount: 2,
		ColumnNames: []string{"month", "sales"},
		ColumnTypes: map[string]string{"month": "object", "sales": "int64"},
		MissingRate: map[string]float64{"month": 0, "sales": 0.1},
		PreviewRows: []map[string]interface{}{
			{"month": "Jan", "sales": float64(10)},
			{"month": "Feb", "sales": float64(20)},
			{"month": "Mar", "sales": nil},
		},
	}
}

// CreateTestSession creates a valid session group for tests
func CreateTestSession(id string) Session {
	return Session{
		SessionID: id,
		UploadID:  "upload-" + id,
		Filename:  "a.xlsx",
		Profile:   CreateTestProfile(10),
	}
}

// CreateTestChart creates a line chart with a gap in its only series
func CreateTestChart() *ChartSpec {
	v1, v2 := 10.0, 5.0
	return &ChartSpec{
		Type: ChartTypeLine,
		X:    Axis{Name: "month", Values: Labels{"Jan", "Feb", "Mar"}},
		Series: []Series{
			{Name: "sales", Values: []*float64{&v1, nil, &v2}},
		},
	}
}

// CreateTestMessage creates a chat message for tests
func CreateTestMessage(id string, role Role, content string, artifacts ...Artifact) ChatMessage {
	if artifacts == nil {
		artifacts = []Artifact{}
	}
	return ChatMessage{
		ID:        id,
		Role:      role,
		Content:   content,
		CreatedAt: Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		Artifacts: artifacts,
	}
}
