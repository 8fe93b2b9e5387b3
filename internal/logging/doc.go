// Package logging builds the zap logger shared by the pmdreview packages.
package logging
