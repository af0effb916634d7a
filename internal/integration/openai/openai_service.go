package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Commands the agent may pick
const (
	CommandListPlants   = "ListPlants"
	CommandPlantStatus  = "PlantStatus"
	CommandWaterPlant   = "WaterPlant"
	CommandGeneralQuery = "GeneralQuery"
)

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName string `json:"command_name" jsonschema_description:"The command to execute: ListPlants, PlantStatus, WaterPlant or GeneralQuery"`
	PlantName   string `json:"plant_name" jsonschema_description:"The name of the plant exactly as it appears in the list of known plants, if applicable"`
	UserMessage string `json:"user_message" jsonschema_description:"A message to show back to the user in their original language"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretUserQuery(ctx context.Context, userMessage string, knownPlants []string) (*AgentResponse, error)
}

// openAIServiceImpl implements the OpenAIService interface.
type openAIServiceImpl struct {
	client openai.Client
	schema interface{}
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// NewOpenAIService creates and initializes a new OpenAIService.
func NewOpenAIService(apiKey string) (OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	schema := GenerateSchema[AgentResponse]()

	return &openAIServiceImpl{
		client: client,
		schema: schema,
	}, nil
}

// SystemPrompt builds the instructions sent with every query
func SystemPrompt(knownPlants []string) string {
	plants := "(none yet)"
	if len(knownPlants) > 0 {
		plants = strings.Join(knownPlants, ", ")
	}

	return fmt.Sprintf(`You are a friendly, practical houseplant assistant for the Soilism plant monitor.

Your job is to turn the user's message into one command for the monitor.

Requirements:
- Reply in the same language the user used.
- Keep user_message to one or two short sentences.
- Only use plant names from the list below, spelled exactly as listed.

Known plants: %s

Behavior:
1. The user wants an overview of all plants:
   - command_name = "%s", plant_name = ""
2. The user asks how a specific plant is doing:
   - command_name = "%s", plant_name = the matching known plant, or "" if unclear
3. The user says they watered a specific plant:
   - command_name = "%s", plant_name = the matching known plant, or "" if unclear
   - user_message: a short confirmation, or a question asking which plant if unclear
4. Anything else (greetings, small talk, plant care questions):
   - command_name = "%s", plant_name = ""
   - user_message: a helpful short answer

Output **strictly** in JSON.`, plants, CommandListPlants, CommandPlantStatus, CommandWaterPlant, CommandGeneralQuery)
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *openAIServiceImpl) InterpretUserQuery(ctx context.Context, userMessage string, knownPlants []string) (*AgentResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, plant name, and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(knownPlants)),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})

	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	return ParseAgentResponse(chat.Choices[0].Message.Content)
}

// ParseAgentResponse decodes the agent's JSON answer
func ParseAgentResponse(content string) (*AgentResponse, error) {
	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		log.Printf("Failed to unmarshal OpenAI response: %s\nRaw response: %s", err, content)
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	return &agentResp, nil
}
