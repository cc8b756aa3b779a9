package param

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
)

var params *Params
var awsSession *session.Session

var paramLookup = map[string]string{
	"ANTHROPIC_API_KEY":          "/chartsmith-preview/anthropic_api_key",
	"PREVIEW_PG_URI":             "/chartsmith-preview/pg_uri",
	"PREVIEW_CENTRIFUGO_ADDRESS": "/chartsmith-preview/centrifugo_address",
	"PREVIEW_CENTRIFUGO_API_KEY": "/chartsmith-preview/centrifugo_api_key",
	"PREVIEW_SLACK_TOKEN":        "/chartsmith-preview/slack_token",
	"PREVIEW_SLACK_CHANNEL":      "/chartsmith-preview/slack_channel",
}

type Params struct {
	AnthropicAPIKey   string
	PGURI             string
	CentrifugoAddress string
	CentrifugoAPIKey  string
	SlackToken        string
	SlackChannel      string
}

func Get() Params {
	if params == nil {
		panic("params not initialized")
	}
	return *params
}

func Init(sess *session.Session) error {
	awsSession = sess

	var paramsMap map[string]string
	if os.Getenv("USE_EC2_PARAMETERS") == "true" {
		p, err := getParamsFromSSM(paramLookup)
		if err != nil {
			return fmt.Errorf("get from ssm: %w", err)
		}
		paramsMap = p
	} else {
		paramsMap = getParamsFromEnv(paramLookup)
	}

	params = &Params{
		AnthropicAPIKey:   paramsMap["ANTHROPIC_API_KEY"],
		PGURI:             paramsMap["PREVIEW_PG_URI"],
		CentrifugoAddress: paramsMap["PREVIEW_CENTRIFUGO_ADDRESS"],
		CentrifugoAPIKey:  paramsMap["PREVIEW_CENTRIFUGO_API_KEY"],
		SlackToken:        paramsMap["PREVIEW_SLACK_TOKEN"],
		SlackChannel:      paramsMap["PREVIEW_SLACK_CHANNEL"],
	}

	return nil
}

func getParamsFromEnv(paramLookup map[string]string) map[string]string {
	params := map[string]string{}
	for envName := range paramLookup {
		params[envName] = os.Getenv(envName)
	}
	return params
}

func getParamsFromSSM(paramLookup map[string]string) (map[string]string, error) {
	svc := ssm.New(awsSession)

	params := map[string]string{}
	reverseLookup := map[string][]string{}

	lookup := []*string{}
	for envName, ssmName := range paramLookup {
		if ssmName == "" {
			params[envName] = os.Getenv(envName)
			continue
		}

		lookup = append(lookup, aws.String(ssmName))
		reverseLookup[ssmName] = append(reverseLookup[ssmName], envName)
	}

	for _, names := range chunkSlice(lookup, 10) {
		input := &ssm.GetParametersInput{
			Names:          names,
			WithDecryption: aws.Bool(true),
		}
		output, err := svc.GetParameters(input)
		if err != nil {
			return params, fmt.Errorf("call get parameters: %w", err)
		}

		for _, p := range output.Parameters {
			for _, envName := range reverseLookup[aws.StringValue(p.Name)] {
				params[envName] = aws.StringValue(p.Value)
			}
		}
	}

	return params, nil
}

func chunkSlice(slice []*string, chunkSize int) [][]*string {
	var chunks [][]*string
	for i := 0; i < len(slice); i += chunkSize {
		end := i + chunkSize
		if end > len(slice) {
			end = len(slice)
		}
		chunks = append(chunks, slice[i:end])
	}
	return chunks
}
