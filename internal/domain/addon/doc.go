// Package addon holds the data model of the addon repository: the entries of
// the configuration listing, the generated manifest records and the error
// taxonomy shared by the generator and the registration utility.
//
// Listing operations are pure; persistence lives in repository/listing.
package addon
