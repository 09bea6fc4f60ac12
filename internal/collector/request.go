package collector

import (
	"strings"

	"osint-automater/internal/models"
)

// BuildRequest Resolves a site definition against one target.
// Every %TARGET% occurrence in the URL template, params, headers and post data is replaced
// with the target, and every %APIKEY% with apiKey. The site itself is not modified.
func BuildRequest(site models.SiteDefinition, target string, targetType models.TargetType, apiKey string) models.Request {
	r := strings.NewReplacer(models.TargetPlaceholder, target, models.APIKeyPlaceholder, apiKey)

	method := site.EffectiveMethod()
	return models.Request{
		Site:       site.Name,
		Target:     target,
		TargetType: targetType,
		Method:     method,
		FullURL:    r.Replace(site.FullURLTemplate),
		SourceURL:  r.Replace(site.DomainURL),
		Params:     substitute(site.Params, r),
		Headers:    substitute(site.Headers, r),
		PostData:   substitute(site.PostData, r),
		APIKey:     apiKey,
	}
}

func substitute(m map[string]string, r *strings.Replacer) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = r.Replace(v)
	}
	return out
}

// resolveAPIKey Configured keys win over the key embedded in the catalog
func resolveAPIKey(site models.SiteDefinition, keys map[string]string) string {
	if key := keys[site.Name]; key != "" {
		return key
	}
	return site.APIKey
}
