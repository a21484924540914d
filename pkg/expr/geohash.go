// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package expr

// Standard base32 geohash encode/decode (no pack library implements
// geohash; this is the well-known public algorithm, not a stdlib
// workaround for something the ecosystem already provides — see
// DESIGN.md's standard-library justification for pkg/expr's geo helpers).

const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

func geohashEncode(lat, lon float64, precision int) string {
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}
	var sb []byte
	bit, ch, evenBit := 0, 0, true
	for len(sb) < precision {
		if evenBit {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		evenBit = !evenBit
		if bit < 4 {
			bit++
		} else {
			sb = append(sb, geohashBase32[ch])
			bit, ch = 0, 0
		}
	}
	return string(sb)
}

func geohashBoundsFloat(hash string) (minLat, minLon, maxLat, maxLon float64) {
	minLat, maxLat = -90, 90
	minLon, maxLon = -180, 180
	evenBit := true
	for i := 0; i < len(hash); i++ {
		idx := indexOfBase32(hash[i])
		if idx < 0 {
			continue
		}
		for n := 4; n >= 0; n-- {
			bit := (idx >> uint(n)) & 1
			if evenBit {
				mid := (minLon + maxLon) / 2
				if bit == 1 {
					minLon = mid
				} else {
					maxLon = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			evenBit = !evenBit
		}
	}
	return
}

func geohashBounds(hash string) (minLat, minLon, maxLat, maxLon float64) {
	return geohashBoundsFloat(hash)
}

func geohashDecode(hash string) (lat, lon float64) {
	minLat, minLon, maxLat, maxLon := geohashBoundsFloat(hash)
	return (minLat + maxLat) / 2, (minLon + maxLon) / 2
}

func indexOfBase32(c byte) int {
	for i := 0; i < len(geohashBase32); i++ {
		if geohashBase32[i] == c {
			return i
		}
	}
	return -1
}

// h3LikeIndex, h3LikeCenter, and h3LikeBounds provide a simplified
// geohash-backed stand-in for Uber's H3 hexagonal grid: no pack repository
// depends on an H3 library, so a faithful hex-grid implementation is out of
// reach here. The index string is a resolution-tagged geohash, which gives
// callers stable, hierarchical cell identifiers with the right shape
// (encode/decode/center/boundary) without claiming real H3 cell geometry;
// see DESIGN.md.
func h3LikeIndex(lat, lon float64, resolution int) string {
	precision := resolution + 1
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}
	return geohashEncode(lat, lon, precision)
}

func h3LikeCenter(cell string) (lat, lon float64) {
	return geohashDecode(cell)
}

func h3LikeBounds(cell string) (minLat, minLon, maxLat, maxLon float64) {
	return geohashBoundsFloat(cell)
}
