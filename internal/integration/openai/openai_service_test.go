package openai

import (
	"strings"
	"testing"
)

func TestParseAgentResponse(t *testing.T) {
	resp, err := ParseAgentResponse(`{"command_name":"WaterPlant","plant_name":"Fern","user_message":"Noted!"}`)
	if err != nil {
		t.Fatalf("ParseAgentResponse: %v", err)
	}
	if resp.CommandName != CommandWaterPlant || resp.PlantName != "Fern" || resp.UserMessage != "Noted!" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if _, err := ParseAgentResponse("not json"); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestSystemPromptListsPlants(t *testing.T) {
	prompt := SystemPrompt([]string{"Fern", "Cactus"})
	if !strings.Contains(prompt, "Fern, Cactus") {
		t.Errorf("prompt does not list the known plants:\n%s", prompt)
	}
	if !strings.Contains(SystemPrompt(nil), "(none yet)") {
		t.Error("prompt should say when no plants are known")
	}
}

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	if _, err := NewOpenAIService(""); err == nil {
		t.Error("expected an error without an API key")
	}
}

func TestGenerateSchema(t *testing.T) {
	if GenerateSchema[AgentResponse]() == nil {
		t.Error("schema should not be nil")
	}
}
