package colormap

// Inferno returns the perceptually uniform black-red-yellow map.
// Its end points are (0,0,3) and (252,254,164) in 8-bit RGB.
func Inferno() *Gradient { return newGradient(infernoData) }

// Magma returns the black-purple-cream map.
func Magma() *Gradient { return newGradient(magmaData) }

// Plasma returns the blue-magenta-yellow map.
func Plasma() *Gradient { return newGradient(plasmaData) }

// Viridis returns the purple-teal-yellow map.
func Viridis() *Gradient { return newGradient(viridisData) }
