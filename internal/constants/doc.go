// Package constants holds the fixed text shown by periodic-commit, such as
// the ASCII logo and tagline.
//
//	fmt.Println(constants.Logo)
//	fmt.Println(constants.Tagline)
package constants
