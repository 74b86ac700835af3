// Package pathutils resolves repository locations given on the command line or in configuration.
package pathutils
