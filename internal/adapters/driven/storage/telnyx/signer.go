package telnyx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// signV4 computes an AWS SigV4 authorisation header for Telnyx Cloud
// Storage. Telnyx accepts the account API key as the access key with a
// fixed placeholder secret. The query string travels inside the signed
// path, matching what the storage endpoint expects.
type signer struct {
	apiKey string
	region string
}

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	signingSecret    = "placeholder"
	signingService   = "s3"
)

// sign returns the request headers carrying the signature. The headers
// map holds the lowercase headers to sign, including host.
func (s *signer) sign(method, path string, headers map[string]string, payloadHash string, now time.Time) map[string]string {
	amzDate := now.UTC().Format("20060102T150405Z")
	dateStamp := now.UTC().Format("20060102")

	headers["x-amz-date"] = amzDate
	headers["x-amz-content-sha256"] = payloadHash

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var canonicalHeaders strings.Builder
	for _, name := range names {
		canonicalHeaders.WriteString(name)
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(headers[name])
		canonicalHeaders.WriteString("\n")
	}
	signedHeaders := strings.Join(names, ";")

	canonicalRequest := fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s",
		method, path, canonicalHeaders.String(), signedHeaders, payloadHash)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.region, signingService)
	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s",
		signingAlgorithm, amzDate, credentialScope, hexSHA256([]byte(canonicalRequest)))

	signature := hex.EncodeToString(hmacSHA256(s.signingKey(dateStamp), stringToSign))

	authorization := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		signingAlgorithm, s.apiKey, credentialScope, signedHeaders, signature)

	out := map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": payloadHash,
		"Authorization":        authorization,
	}
	if ct, ok := headers["content-type"]; ok {
		out["Content-Type"] = ct
	}
	return out
}

func (s *signer) signingKey(dateStamp string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+signingSecret), dateStamp)
	kRegion := hmacSHA256(kDate, s.region)
	kService := hmacSHA256(kRegion, signingService)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
