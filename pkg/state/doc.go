/*
Package state keeps the two flat files that make exports resumable.

The progress log (.cache/processed_pages.txt) is appended once per exported
page; batch exports skip every id it already lists. The page-id cache
(.cache/<space>/pages.txt) stores the page ids of a space so repeated runs
do not enumerate the space again. Both files hold one id per line and
tolerate duplicates.
*/
package state
