package update

import (
	"regexp"
	"strings"
)

// Release bodies carry checksums in whichever style the packaging
// pipeline emitted. Three formats are recognized, tried per line in
// this order:
//
//	SHA256 (noveldl_linux_amd64.tar.gz) = <hex>     BSD digest style
//	<hex> *noveldl_linux_amd64.tar.gz               sha256sum style
//	noveldl_linux_amd64.tar.gz: <hex>               key-value style
var checksumStyles = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^SHA-?256\s*\(([^)]+)\)\s*=\s*([0-9a-fA-F]{64})\s*$`),
	regexp.MustCompile(`^([0-9a-fA-F]{64})\s+\*?(\S+)\s*$`),
	regexp.MustCompile(`^(\S+?):\s*([0-9a-fA-F]{64})\s*$`),
}

// ParseChecksums extracts asset checksums from release body text. Lines
// that match none of the known styles are ignored. The first matching
// style wins per line; a later line for the same asset overrides an
// earlier one. Digests are normalized to lowercase hex.
func ParseChecksums(body string) map[string]string {
	sums := make(map[string]string)
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		// Markdown code fences and bullets around checksum blocks.
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.Trim(line, "`")
		if line == "" {
			continue
		}

		for i, re := range checksumStyles {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			var name, digest string
			switch i {
			case 1: // sha256sum style: digest first
				digest, name = m[1], m[2]
			default: // BSD and key-value styles: name first
				name, digest = m[1], m[2]
			}
			sums[strings.TrimSpace(name)] = strings.ToLower(digest)
			break
		}
	}
	return sums
}
