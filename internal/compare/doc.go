// Package compare computes unit prices for catalog records, compares them
// within a quantity class and ranks the offers for an article.
package compare
