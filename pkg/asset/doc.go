/*
Package asset turns binary references in page markup into local files.

Attachments are matched by file id or by link id on their container page
and written to the attachment path template. Direct images are stored under
the assets directory by content hash: base64 data URIs by md5 of the
payload, URLs by md5 of the URL with any extension reusing an earlier
download. Image failures never fail a page; the reference is dropped.
*/
package asset
