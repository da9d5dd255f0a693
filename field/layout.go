package field

// Layout construction helpers. These build the material region list for a
// typical office floor programmatically: a concrete shell, drywall
// partitions, glass windows, wooden doors. Configs can always specify raw
// polygons instead; these exist so demo and test setups stay readable.

// wallThickness values in meters.
const (
	concreteThickness = 0.3
	drywallThickness  = 0.15
	doorWidth         = 1.0
	windowWidth       = 2.0
)

// rectRegion builds an axis-aligned rectangular material region.
func rectRegion(material string, x, y, w, h float64) MaterialRegionConfig {
	return MaterialRegionConfig{
		Material: material,
		Polygon: [][2]float64{
			{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h},
		},
	}
}

// OfficeLayout builds the material regions for a rectangular office floor:
// a concrete outer shell, a drywall corridor partition across the middle
// with a door gap, and evenly spaced drywall room dividers with glass
// windows on the top row.
func OfficeLayout(width, height float64, rooms int) []MaterialRegionConfig {
	var regions []MaterialRegionConfig

	// Outer shell.
	regions = append(regions,
		rectRegion("concrete", 0, 0, width, concreteThickness),                    // bottom
		rectRegion("concrete", 0, height-concreteThickness, width, concreteThickness), // top
		rectRegion("concrete", 0, 0, concreteThickness, height),                   // left
		rectRegion("concrete", width-concreteThickness, 0, concreteThickness, height), // right
	)

	// Corridor partition across the middle, with a centered door gap.
	midY := height / 2
	gapStart := width/2 - doorWidth/2
	regions = append(regions,
		rectRegion("drywall", 0, midY, gapStart, drywallThickness),
		rectRegion("wood", gapStart, midY, doorWidth, drywallThickness),
		rectRegion("drywall", gapStart+doorWidth, midY, width-gapStart-doorWidth, drywallThickness),
	)

	if rooms < 2 {
		return regions
	}

	// Room dividers in the top half, with glass windows in the top wall.
	roomWidth := width / float64(rooms)
	for i := 1; i < rooms; i++ {
		x := float64(i) * roomWidth
		regions = append(regions,
			rectRegion("drywall", x, midY+drywallThickness, drywallThickness, height/2-drywallThickness))
	}
	for i := 0; i < rooms; i++ {
		wx := float64(i)*roomWidth + roomWidth/2 - windowWidth/2
		regions = append(regions,
			rectRegion("glass", wx, height-concreteThickness, windowWidth, concreteThickness))
	}

	return regions
}
