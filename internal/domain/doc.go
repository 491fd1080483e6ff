// Package domain models rain estimation from Turkish State Meteorological
// Service (MGM) weather-radar images.
//
// # Data Source
//
// MGM publishes a plan-position-indicator (PPI) JPEG per radar site:
//
//	https://www.mgm.gov.tr/FTPDATA/uzal/radar/<code>/<code>ppi15.jpg
//
// where <code> is a three-letter site code ("ist" = Istanbul, "ank" = Ankara).
// Site names are resolved from the URL by [ResolveStation].
//
// # Image Conventions
//
// The default region of interest is a 360 px circle centered on (360, 360).
// Everything outside it is map frame and legend, so images are masked with
// [MaskCircle] before analysis. Inside the circle, the default ignore set
// holds the background and legend colors:
//
//	(0, 0, 0)        masked area and no-data
//	(148, 201, 255)  background
//	(255, 255, 217)  background
//
// # Classification
//
// A pixel whose red channel is below the threshold (default 5) counts as
// light rain, blue as moderate rain and green as heavy rain. Channels are tested
// independently, so one pixel can count toward several categories. See
// [Classify] and [NoiseFloor.Apply].
//
// Raw counts include a roughly constant background even in dry weather.
// The collector subtracts a per-category [NoiseFloor] (5000 light, 5000
// moderate, 3000 heavy) and clamps at zero. The constants are empirical
// calibration for the MGM product, not derived statistics.
//
// # History
//
// Each round over all sites becomes one column of a [HistoryTable] labelled
// "YYYY-MM-DD_HH-MM". Rows are (site, category). The table only grows.
package domain
