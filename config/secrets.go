package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// SSMSuffix marks a key whose value should be read from Parameter Store:
// ADMIN_JWT_SECRET_SSM_PARAM=/collages/admin-secret fills ADMIN_JWT_SECRET.
const SSMSuffix = "_SSM_PARAM"

// ParameterGetter is the subset of the SSM client used to resolve secrets
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ResolveSecrets fills every key in keys that has no value yet but has a
// matching <key>_SSM_PARAM entry. When no such entry exists no AWS client is
// created.
func ResolveSecrets(ctx context.Context, cfg map[string]string, keys ...string) error {
	pending := pendingSecrets(cfg, keys)
	if len(pending) == 0 {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	return resolveWith(ctx, ssm.NewFromConfig(awsCfg), cfg, pending)
}

func pendingSecrets(cfg map[string]string, keys []string) []string {
	var pending []string
	for _, key := range keys {
		if GetString(cfg, key, "") != "" {
			continue
		}
		if GetString(cfg, key+SSMSuffix, "") != "" {
			pending = append(pending, key)
		}
	}
	return pending
}

func resolveWith(ctx context.Context, client ParameterGetter, cfg map[string]string, keys []string) error {
	for _, key := range keys {
		name := cfg[key+SSMSuffix]
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("get parameter %s for %s: %w", name, key, err)
		}
		if out.Parameter == nil {
			return fmt.Errorf("parameter %s for %s has no value", name, key)
		}
		cfg[key] = aws.ToString(out.Parameter.Value)
		log.Debug().Str("key", key).Str("parameter", name).Msg("Resolved secret from SSM")
	}
	return nil
}
