// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encode rewrites image references in generated Markdown so that
// special characters in asset filenames resolve as link targets.
package encode

import "strings"

// imageMarker introduces a referenced-asset link as emitted by the
// conversion backends.
const imageMarker = "![Image]("

// rasterExts are the image extensions eligible for path rewriting.
var rasterExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp"}

// ImagePaths percent-encodes the path of every image reference in md,
// line by line. Only lines carrying the image marker and ending in a raster
// extension are rewritten; everything else passes through byte for byte.
// Path separators and safe punctuation (/ . : - _) stay intact so relative
// and absolute path structure survives. The function is total and
// idempotent: existing %XX escapes are never re-encoded, and line count and
// ordering are always preserved.
func ImagePaths(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = encodeLine(line)
	}
	return strings.Join(lines, "\n")
}

func encodeLine(line string) string {
	markerIdx := strings.Index(line, imageMarker)
	if markerIdx < 0 {
		return line
	}

	ext := matchingExt(line)
	if ext == "" {
		return line
	}

	start := markerIdx + len(imageMarker)
	end := strings.LastIndex(line, ext) + len(ext)
	if start >= end {
		return line
	}

	return line[:start] + encodePath(line[start:end]) + line[end:]
}

// matchingExt returns the raster extension the line's link ends with, or ""
// when the line is not a rewrite candidate.
func matchingExt(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	for _, ext := range rasterExts {
		if strings.HasSuffix(trimmed, ext+")") {
			return ext
		}
	}
	return ""
}

// encodePath percent-encodes every byte of path except RFC 3986 unreserved
// characters and the path-safe set / . : - _. A % starting a valid escape
// sequence is copied verbatim, which makes re-encoding a no-op.
func encodePath(path string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case isSafe(c):
			b.WriteByte(c)
		case c == '%' && i+2 < len(path) && isHex(path[i+1]) && isHex(path[i+2]):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}

func isSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '/', '.', ':', '-', '_', '~':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
