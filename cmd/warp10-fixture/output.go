package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dropDatabas3/warp10-fixture/internal/util"
	"github.com/dropDatabas3/warp10-fixture/warp10"
)

type credentialsOut struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	Address    string            `json:"address"`
	Protocol   string            `json:"protocol"`
	ReadToken  string            `json:"read_token"`
	WriteToken string            `json:"write_token"`
	CryptoKeys map[string]string `json:"crypto_keys,omitempty"`
	KeysValid  *bool             `json:"crypto_keys_valid,omitempty"`
}

func toOut(cr warp10.Credentials) credentialsOut {
	o := credentialsOut{
		ID:         cr.ID,
		URL:        cr.URL,
		Address:    cr.Address,
		Protocol:   cr.Protocol,
		ReadToken:  cr.ReadToken,
		WriteToken: cr.WriteToken,
	}
	if cr.HasKeys {
		o.CryptoKeys = keyMap(cr.Keys)
		valid := cr.Keys.IsValid()
		o.KeysValid = &valid
	}
	return o
}

func keyMap(k warp10.CryptoKeySet) map[string]string {
	m := map[string]string{}
	if v, ok := k.AESTokenKey(); ok {
		m["aes_token_key"] = v
	}
	if v, ok := k.SipHashAppKey(); ok {
		m["siphash_app_key"] = v
	}
	if v, ok := k.SipHashTokenKey(); ok {
		m["siphash_token_key"] = v
	}
	return m
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCredentials: en texto los secretos salen enmascarados salvo reveal.
func printCredentials(w io.Writer, format string, cr warp10.Credentials, reveal bool) error {
	o := toOut(cr)
	if format == "json" {
		return printJSON(w, o)
	}
	mask := func(s string) string {
		if reveal {
			return s
		}
		return util.MaskToken(s)
	}
	fmt.Fprintf(w, "id:          %s\n", o.ID)
	fmt.Fprintf(w, "url:         %s\n", o.URL)
	fmt.Fprintf(w, "read token:  %s\n", mask(o.ReadToken))
	fmt.Fprintf(w, "write token: %s\n", mask(o.WriteToken))
	if o.KeysValid != nil {
		fmt.Fprintf(w, "keys valid:  %t\n", *o.KeysValid)
		printKeys(w, o.CryptoKeys, mask)
	}
	return nil
}

func printKeys(w io.Writer, keys map[string]string, mask func(string) string) {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "%-18s %s\n", k+":", mask(keys[k]))
	}
}
