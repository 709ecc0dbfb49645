package device

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hakerfromrussia/miolink/internal/attrdb"
)

// Catalog is the set of GATT services discovered on the peripheral, in
// discovery order. It is rebuilt in full on every discovery pass; the link
// manager discards the previous catalog wholesale.
type Catalog struct {
	services *orderedmap.OrderedMap[string, *Service]
}

// Service is one GATT service and its characteristics, in discovery order.
type Service struct {
	uuid  string
	name  string
	chars *orderedmap.OrderedMap[string, *Characteristic]
}

// Characteristic is one data channel within a service.
type Characteristic struct {
	uuid   string
	name   string
	handle uint16
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{services: orderedmap.New[string, *Service]()}
}

// AddService appends a service, resolving its display name from the
// attribute table. Re-adding an existing UUID returns the existing entry.
func (c *Catalog) AddService(uuid string) *Service {
	key := NormalizeUUID(uuid)
	if svc, ok := c.services.Get(key); ok {
		return svc
	}
	svc := &Service{
		uuid:  key,
		name:  attrdb.Lookup(uuid, "Unknown Service"),
		chars: orderedmap.New[string, *Characteristic](),
	}
	c.services.Set(key, svc)
	return svc
}

// Services returns the services in discovery order.
func (c *Catalog) Services() []*Service {
	result := make([]*Service, 0, c.services.Len())
	for pair := c.services.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// Len returns the number of services.
func (c *Catalog) Len() int {
	return c.services.Len()
}

// FindCharacteristic locates a characteristic by UUID across all services.
func (c *Catalog) FindCharacteristic(uuid string) (*Characteristic, bool) {
	key := NormalizeUUID(uuid)
	for pair := c.services.Oldest(); pair != nil; pair = pair.Next() {
		if char, ok := pair.Value.chars.Get(key); ok {
			return char, true
		}
	}
	return nil, false
}

// AddCharacteristic appends a characteristic with its raw attribute handle.
// Re-adding an existing UUID returns the existing entry.
func (s *Service) AddCharacteristic(uuid string, handle uint16) *Characteristic {
	key := NormalizeUUID(uuid)
	if char, ok := s.chars.Get(key); ok {
		return char
	}
	char := &Characteristic{
		uuid:   key,
		name:   attrdb.Lookup(uuid, "Unknown Characteristic"),
		handle: handle,
	}
	s.chars.Set(key, char)
	return char
}

// UUID returns the service UUID in normalized form.
func (s *Service) UUID() string { return s.uuid }

// Name returns the display name resolved from the attribute table.
func (s *Service) Name() string { return s.name }

// Characteristics returns the characteristics in discovery order.
func (s *Service) Characteristics() []*Characteristic {
	result := make([]*Characteristic, 0, s.chars.Len())
	for pair := s.chars.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// UUID returns the characteristic UUID in normalized form.
func (ch *Characteristic) UUID() string { return ch.uuid }

// Name returns the display name resolved from the attribute table.
func (ch *Characteristic) Name() string { return ch.name }

// Handle returns the raw attribute handle.
func (ch *Characteristic) Handle() uint16 { return ch.handle }
