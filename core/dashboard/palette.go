package dashboard

import "github.com/cespare/xxhash/v2"

// Palette is the fixed set of accent colors work items are drawn with.
var Palette = []string{
	"#4F46E5", // indigo
	"#0EA5E9", // sky
	"#10B981", // emerald
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // violet
	"#EC4899", // pink
	"#14B8A6", // teal
}

// PaletteIndex maps title to an index in [0, size) using xxhash, which is stable across runs and platforms.
func PaletteIndex(title string, size int) int {
	if size <= 0 {
		return 0
	}
	return int(xxhash.Sum64String(title) % uint64(size))
}

func ColorFor(title string) string {
	return Palette[PaletteIndex(title, len(Palette))]
}
