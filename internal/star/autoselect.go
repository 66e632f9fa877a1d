// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package star

import (
	"github.com/starguide/phdcore/internal/phdimage"
)

// AutoSelect slides an R-radius window over the whole image (with a
// margin) looking for the best candidate guide star, ranking candidates by
// mass*snr and excluding saturated or edge-adjacent results. Ties are
// broken by lowest distance to the image center. Returns false if no
// candidate qualifies.
func AutoSelect(img *phdimage.Image, cfg FinderConfig) (Star, bool) {
	R := cfg.SearchRadius
	rect := img.ValidRect()

	step := R
	if step < 1 {
		step = 1
	}

	var candidates []Star
	for y := rect.Y + R; y < rect.Y+rect.H-R; y += step {
		for x := rect.X + R; x < rect.X+rect.W-R; x += step {
			s := Find(img, float64(x), float64(y), cfg)
			if s.LastResult != Ok { // excludes Saturated, NearEdge, LowSNR, LowMass
				continue
			}
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return Star{}, false
	}

	// Sort candidates best-first by mass*snr, adapting the teacher's
	// QSortStarsDesc quicksort (there sorting by Mass alone).
	cx, cy := float64(rect.X)+float64(rect.W)/2, float64(rect.Y)+float64(rect.H)/2
	score := func(s Star) float64 { return s.Mass * s.SNR }
	sortStarsDescByKey(candidates, score)

	// Several seed points can converge onto the same bright star; among
	// all candidates tied for the top score, break ties by picking the
	// one closest to the image center.
	distToCenter := func(s Star) float64 {
		dx, dy := s.X-cx, s.Y-cy
		return dx*dx + dy*dy
	}
	best := candidates[0]
	bestDist := distToCenter(best)
	topScore := score(best)
	for _, c := range candidates[1:] {
		if score(c) != topScore {
			break
		}
		if d := distToCenter(c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, true
}
