package audio

import (
	"strings"
	"testing"
)

func testEntries() []PlaylistEntry {
	return []PlaylistEntry{
		{Path: "/music/Band - One.mp3", Title: "One", Artist: "Band"},
		{Path: "/music/Two.mp3", Title: "Two"},
	}
}

func TestPlaylistCreator_M3U(t *testing.T) {
	content := NewPlaylistCreator(FormatM3U, false).CreatePlaylist("LP", testEntries())

	if content != "Band - One.mp3\nTwo.mp3\n" {
		t.Errorf("M3U = %q", content)
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	content := NewPlaylistCreator(FormatM3U, true).CreatePlaylist("LP", testEntries())

	if !strings.HasPrefix(content, "#EXTM3U\n") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:-1,Band - One\n") {
		t.Errorf("missing EXTINF with artist: %q", content)
	}
	if !strings.Contains(content, "#EXTINF:-1,Two\n") {
		t.Errorf("missing EXTINF without artist: %q", content)
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	content := NewPlaylistCreator(FormatPLS, false).CreatePlaylist("LP", testEntries())

	for _, want := range []string{"[playlist]\n", "File1=Band - One.mp3\n", "Title2=Two\n", "NumberOfEntries=2\n", "Version=2\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("PLS missing %q", want)
		}
	}
}

func TestPlaylistCreator_SMIL(t *testing.T) {
	tests := []struct {
		format PlaylistFormat
		header string
		extra  string
	}{
		{FormatWPL, "<?wpl", ""},
		{FormatZPL, "<?zpl", `<meta name="ItemCount" content="2"/>`},
	}

	for _, tt := range tests {
		t.Run(tt.format.Extension(), func(t *testing.T) {
			content := NewPlaylistCreator(tt.format, false).CreatePlaylist("LP", testEntries())

			if !strings.HasPrefix(content, tt.header) {
				t.Errorf("missing declaration %q", tt.header)
			}
			if !strings.Contains(content, `<media src="Two.mp3"/>`) {
				t.Error("missing media element")
			}
			if tt.extra != "" && !strings.Contains(content, tt.extra) {
				t.Errorf("missing %q", tt.extra)
			}
		})
	}
}

func TestPlaylistCreator_XMLEscape(t *testing.T) {
	entries := []PlaylistEntry{{Path: "/m/Track & \"Quote\".mp3", Title: "Track"}}
	content := NewPlaylistCreator(FormatWPL, false).CreatePlaylist("Mix <Special>", entries)

	if strings.Contains(content, "<Special>") {
		t.Error("WPL should escape < and >")
	}
	if !strings.Contains(content, "Track &amp; &quot;Quote&quot;.mp3") {
		t.Errorf("file name not escaped: %q", content)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]PlaylistFormat{
		"m3u":  FormatM3U,
		"PLS":  FormatPLS,
		"wpl":  FormatWPL,
		" zpl": FormatZPL,
		"xspf": FormatM3U,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
	if FormatZPL.Extension() != ".zpl" || FormatM3U.Extension() != ".m3u" {
		t.Error("unexpected extensions")
	}
}
