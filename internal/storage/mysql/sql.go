package mysql

const pubColumns = `p.id, p.custom_pub_id, p.camra_id, p.name, p.address, p.description,
  p.inventory_stars, p.listed, p.is_open, p.url, p.lat, p.lon`

const insertPubSQL = `
INSERT INTO pubs
  (custom_pub_id, camra_id, name, address, description, inventory_stars, listed, is_open, url, lat, lon)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Coordinates are only filled when empty; the importer never overwrites a geocoded position.
const updatePubSQL = `
UPDATE pubs SET
  camra_id        = ?,
  name            = ?,
  address         = ?,
  description     = ?,
  inventory_stars = ?,
  listed          = ?,
  is_open         = ?,
  url             = ?,
  lat             = COALESCE(lat, ?),
  lon             = COALESCE(lon, ?),
  updated_at      = CURRENT_TIMESTAMP
WHERE id = ?
`

const setCoordsSQL = `UPDATE pubs SET lat = ?, lon = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

const getPubSQL = `SELECT ` + pubColumns + ` FROM pubs p WHERE p.id = ?`

// Listed pubs are the open three-star inventory entries.
const listListedPubsSQL = `SELECT ` + pubColumns + `
FROM pubs p
WHERE p.inventory_stars = 3 AND p.is_open = 1
ORDER BY p.name, p.id`

const listListedVisitsSQL = `
SELECT v.pub_id, v.user_id
FROM pub_visits v
JOIN pubs p ON p.id = v.pub_id
WHERE p.inventory_stars = 3 AND p.is_open = 1
ORDER BY v.pub_id, v.user_id`

const listAllPubsSQL = `SELECT ` + pubColumns + ` FROM pubs p ORDER BY p.id`

const listMissingCoordsSQL = `SELECT ` + pubColumns + `
FROM pubs p
WHERE p.lat IS NULL OR p.lon IS NULL
ORDER BY p.id`

// Oldest first; the last post per pub is the one shown.
const listPostsByOwnerSQL = `
SELECT id, pub_id, owner_id, content, date_visited, created_at
FROM posts
WHERE owner_id = ?
ORDER BY pub_id, created_at, id`

const starStatsSQL = `
SELECT inventory_stars, COUNT(*), COALESCE(SUM(is_open), 0)
FROM pubs
WHERE inventory_stars BETWEEN 0 AND 3
GROUP BY inventory_stars`

const pubExistsSQL = `SELECT id FROM pubs WHERE id = ? FOR UPDATE`

const insertPostSQL = `
INSERT INTO posts (pub_id, owner_id, content, date_visited)
VALUES (?, ?, ?, ?)
`

const insertVisitSQL = `
INSERT INTO pub_visits (pub_id, user_id)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE visited_at = visited_at
`

const deletePostsSQL = `DELETE FROM posts WHERE pub_id = ? AND owner_id = ?`

const deleteVisitSQL = `DELETE FROM pub_visits WHERE pub_id = ? AND user_id = ?`

// Children go first; pub_visits and posts reference pubs.
var deleteAllPubsSQL = []string{
	`DELETE FROM posts`,
	`DELETE FROM pub_visits`,
	`DELETE FROM pubs`,
}
