/*
Package pathtmpl expands page and attachment path templates.

Placeholders use {name}. Shared: space_key, space_name, homepage_id,
homepage_title, ancestor_ids, ancestor_titles. Pages add page_id and
page_title. Attachments add attachment_id, attachment_title,
attachment_file_id and attachment_extension. Unknown placeholders are left
as written.
*/
package pathtmpl
