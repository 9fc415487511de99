package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jedisct1/go-minisign"
)

// maxManifestSize bounds the manifest document; anything larger is not
// a manifest.
const maxManifestSize = 1 << 20

// FetchRemote downloads a manifest from url and verifies it against
// the detached minisign signature published next to it (url +
// ".minisig") before parsing. publicKey is the base64-encoded minisign
// public key the release process signs with.
//
// The signature check is what makes a remote manifest a trusted input;
// an unverifiable manifest is rejected outright.
func FetchRemote(ctx context.Context, client *http.Client, url string, publicKey string) (*Manifest, error) {
	key, err := minisign.NewPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse manifest public key: %w", err)
	}

	data, err := get(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}

	sigData, err := get(ctx, client, url+".minisig")
	if err != nil {
		return nil, fmt.Errorf("fetch manifest signature: %w", err)
	}
	sig, err := minisign.DecodeSignature(string(sigData))
	if err != nil {
		return nil, fmt.Errorf("decode manifest signature: %w", err)
	}

	valid, err := key.Verify(data, sig)
	if err != nil {
		return nil, fmt.Errorf("verify manifest signature: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("manifest signature verification failed")
	}

	return Parse(data)
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
}
