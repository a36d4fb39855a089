package geo

import (
	"encoding/binary"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// LineStringToWKB encodes a path geometry for the routes.geometry column.
func LineStringToWKB(ls *geom.LineString) ([]byte, error) {
	if ls == nil {
		return nil, nil
	}
	return wkb.Marshal(ls, binary.LittleEndian)
}

// WKBToGeoJSON converts stored WKB bytes into a GeoJSON string for API
// responses. Empty input yields an empty string.
func WKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LineStringToGeoJSON renders an in-memory path geometry as GeoJSON.
func LineStringToGeoJSON(ls *geom.LineString) (string, error) {
	if ls == nil {
		return "", nil
	}
	b, err := gjson.Marshal(ls)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseGeoJSONLineString decodes a GeoJSON geometry and asserts it is a
// LineString.
func ParseGeoJSONLineString(raw []byte) (*geom.LineString, error) {
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, ErrNotLineString
	}
	return ls, nil
}
