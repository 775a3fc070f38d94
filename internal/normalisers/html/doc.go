// Package html strips markup from scraped article fields. Publisher pages
// often leave inline tags (<i>, <sup>) and entities in titles and abstracts.
package html
