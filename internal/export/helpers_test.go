package export

import (
	"encoding/json"

	"github.com/datawhisper/datawhisper-cli/internal"
)

func testTranscript() *internal.Transcript {
	unknown := internal.Artifact{Kind: "table", Raw: json.RawMessage(`{"rows":[[1,2]]}`)}
	return &internal.Transcript{
		SessionID: "S1",
		Filename:  "a.xlsx",
		Messages: []internal.ChatMessage{
			internal.CreateTestMessage("m2", internal.RoleAssistant, "Sales dipped in **Feb**",
				internal.NewChartArtifact(internal.CreateTestChart()), unknown),
			internal.CreateTestMessage("m1", internal.RoleUser, "trend of sales"),
		},
	}
}
