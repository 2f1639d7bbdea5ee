package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// Secret usage types (virSecretUsageType).
const (
	SecretUsageNone   int32 = 0
	SecretUsageVolume int32 = 1
	SecretUsageCeph   int32 = 2
	SecretUsageISCSI  int32 = 3
	SecretUsageTLS    int32 = 4
	SecretUsageVTPM   int32 = 5
)

var secretUsageNames = [...]string{"none", "volume", "ceph", "iscsi", "tls", "vtpm"}

// SecretUsageName names a secret usage type.
func SecretUsageName(t int32) string {
	if t >= 0 && int(t) < len(secretUsageNames) {
		return secretUsageNames[t]
	}
	return "unknown"
}

// ParseSecretUsage returns the usage type named s, e.g. "ceph".
func ParseSecretUsage(s string) (int32, error) {
	for i, name := range secretUsageNames {
		if name == s {
			return int32(i), nil
		}
	}
	return 0, argumentError("virSecretLookupByUsage", "unknown secret usage type %q", s)
}

// Secret is a handle to a libvirt secret.
type Secret struct {
	conn   *Conn
	secret libvirt.Secret
}

func (c *Conn) secretHandle(s libvirt.Secret) *Secret {
	return &Secret{conn: c, secret: s}
}

// NumOfSecrets returns the number of secrets.
func (c *Conn) NumOfSecrets() (int32, error) {
	rpc, err := c.client("virConnectNumOfSecrets")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfSecrets()
	if err != nil {
		return 0, retrieveError("virConnectNumOfSecrets", err)
	}
	return n, nil
}

// ListSecrets returns the UUIDs of all secrets.
func (c *Conn) ListSecrets() ([]string, error) {
	n, err := c.NumOfSecrets()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListSecrets")
	if err != nil {
		return nil, err
	}
	ids, err := rpc.ConnectListSecrets(n)
	if err != nil {
		return nil, retrieveError("virConnectListSecrets", err)
	}
	return ids, nil
}

// LookupSecretByUUID returns the secret with the given UUID string.
func (c *Conn) LookupSecretByUUID(id string) (*Secret, error) {
	u, err := parseUUID("virSecretLookupByUUIDString", id)
	if err != nil {
		return nil, err
	}
	rpc, err := c.client("virSecretLookupByUUIDString")
	if err != nil {
		return nil, err
	}
	s, err := rpc.SecretLookupByUUID(u)
	if err != nil {
		return nil, retrieveError("virSecretLookupByUUIDString", err)
	}
	return c.secretHandle(s), nil
}

// LookupSecretByUsage returns the secret for a usage type and ID, e.g. a
// volume path or a ceph client name.
func (c *Conn) LookupSecretByUsage(usageType int32, usageID string) (*Secret, error) {
	rpc, err := c.client("virSecretLookupByUsage")
	if err != nil {
		return nil, err
	}
	s, err := rpc.SecretLookupByUsage(usageType, usageID)
	if err != nil {
		return nil, retrieveError("virSecretLookupByUsage", err)
	}
	return c.secretHandle(s), nil
}

// DefineSecretXML defines or replaces a secret.
func (c *Conn) DefineSecretXML(xml string, flags uint32) (*Secret, error) {
	rpc, err := c.client("virSecretDefineXML")
	if err != nil {
		return nil, err
	}
	s, err := rpc.SecretDefineXML(xml, flags)
	if err != nil {
		return nil, definitionError("virSecretDefineXML", err)
	}
	return c.secretHandle(s), nil
}

// SecretInfos describes every secret, without values.
func (c *Conn) SecretInfos() ([]v1alpha1.SecretInfo, error) {
	ids, err := c.ListSecrets()
	if err != nil {
		return nil, err
	}
	infos := make([]v1alpha1.SecretInfo, 0, len(ids))
	for _, id := range ids {
		s, err := c.LookupSecretByUUID(id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, v1alpha1.SecretInfo{
			UUID:      s.UUID(),
			UsageType: SecretUsageName(s.UsageType()),
			UsageID:   s.UsageID(),
		})
	}
	return infos, nil
}

// UUID returns the secret UUID as a string.
func (s *Secret) UUID() string {
	return formatUUID(s.secret.UUID)
}

// UsageType returns the secret usage type.
func (s *Secret) UsageType() int32 {
	return s.secret.UsageType
}

// UsageID returns the object the secret belongs to.
func (s *Secret) UsageID() string {
	return s.secret.UsageID
}

// XMLDesc returns the secret XML.
func (s *Secret) XMLDesc(flags uint32) (string, error) {
	rpc, err := s.conn.client("virSecretGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.SecretGetXMLDesc(s.secret, flags)
	if err != nil {
		return "", retrieveError("virSecretGetXMLDesc", err)
	}
	return xml, nil
}

// Value returns the secret value.
func (s *Secret) Value() ([]byte, error) {
	rpc, err := s.conn.client("virSecretGetValue")
	if err != nil {
		return nil, err
	}
	v, err := rpc.SecretGetValue(s.secret, 0)
	if err != nil {
		return nil, retrieveError("virSecretGetValue", err)
	}
	return v, nil
}

// SetValue replaces the secret value.
func (s *Secret) SetValue(value []byte) error {
	rpc, err := s.conn.client("virSecretSetValue")
	if err != nil {
		return err
	}
	if err := rpc.SecretSetValue(s.secret, value, 0); err != nil {
		return operationError("virSecretSetValue", err)
	}
	return nil
}

// Undefine removes the secret.
func (s *Secret) Undefine() error {
	rpc, err := s.conn.client("virSecretUndefine")
	if err != nil {
		return err
	}
	if err := rpc.SecretUndefine(s.secret); err != nil {
		return operationError("virSecretUndefine", err)
	}
	return nil
}
