// Package landmask loads the land/sea mask from an ASCII grid file: one
// line of '0' (ocean) and '1' (land) characters per latitude row, northward
// from -90°, longitude running east from 0°. Blank lines and '#' comments
// are ignored.
package landmask

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
)

// Load reads a mask file and checks it against the expected grid extents.
func Load(path string, nlat, nlon int) (*grid.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open land mask: %w", err)
	}
	defer f.Close()

	land := make([]bool, 0, nlat*nlon)
	rows := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, nlon+2), nlon*4)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) != nlon {
			return nil, &domain.ShapeMismatchError{
				Context: fmt.Sprintf("land mask row %d", rows),
				Want:    fmt.Sprintf("%d columns", nlon),
				Got:     fmt.Sprintf("%d columns", len(line)),
			}
		}
		for j := 0; j < len(line); j++ {
			switch line[j] {
			case '0':
				land = append(land, false)
			case '1':
				land = append(land, true)
			default:
				return nil, fmt.Errorf("land mask row %d column %d: unexpected character %q", rows, j, line[j])
			}
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read land mask: %w", err)
	}
	if rows != nlat {
		return nil, &domain.ShapeMismatchError{
			Context: "land mask",
			Want:    fmt.Sprintf("%d rows", nlat),
			Got:     fmt.Sprintf("%d rows", rows),
		}
	}

	return grid.NewMask(nlat, nlon, land)
}
