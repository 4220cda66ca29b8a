package cell

// xterm 256-color palette
//
// Color cube: index = 16 + 36*r + 6*g + b where r,g,b ∈ [0,5]
// Grayscale ramp: indices 232-255, level = 8 + 10*(index-232)

// Color cube values for 6x6x6 palette (indices 16-231)
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// ansiColors are the 16 system colors (xterm defaults)
var ansiColors = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// grayscaleStart is the first grayscale index (232-255 = 24 shades)
const grayscaleStart = 232

// cubeIndex maps 0-255 to nearest cube index 0-5
var cubeIndex [256]uint8

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := abs(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			d := abs(i - int(cubeValues[j]))
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PaletteRGB returns the color of a 256-color palette entry
func PaletteRGB(idx uint8) (r, g, b uint8) {
	switch {
	case idx < 16:
		c := ansiColors[idx]
		return c[0], c[1], c[2]
	case idx >= grayscaleStart:
		level := uint8(8 + 10*int(idx-grayscaleStart))
		return level, level, level
	default:
		i := int(idx) - 16
		return cubeValues[i/36], cubeValues[(i/6)%6], cubeValues[i%6]
	}
}

// Nearest256 finds the nearest 256-color palette index for an RGB value
// System colors 0-15 are never returned, their appearance is terminal-defined
func Nearest256(r, g, b uint8) uint8 {
	cubeR, cubeG, cubeB := cubeIndex[r], cubeIndex[g], cubeIndex[b]
	cube := 16 + 36*cubeR + 6*cubeG + cubeB

	// Grayscale only competes when r ≈ g ≈ b
	gray := (int(r) + int(g) + int(b)) / 3
	maxDiff := max(abs(int(r)-gray), abs(int(g)-gray), abs(int(b)-gray))
	if maxDiff >= 10 {
		return cube
	}
	if gray < 4 {
		return 16
	}
	if gray > 243 {
		return 231
	}
	grayIdx := grayscaleStart + (gray-8)/10
	if grayIdx > 255 {
		grayIdx = 255
	}
	if grayIdx < grayscaleStart {
		grayIdx = grayscaleStart
	}

	grayLevel := 8 + (grayIdx-grayscaleStart)*10
	grayDist := abs(int(r)-grayLevel) + abs(int(g)-grayLevel) + abs(int(b)-grayLevel)
	cubeDist := abs(int(r)-int(cubeValues[cubeR])) +
		abs(int(g)-int(cubeValues[cubeG])) +
		abs(int(b)-int(cubeValues[cubeB]))

	if grayDist < cubeDist {
		return uint8(grayIdx)
	}
	return cube
}
